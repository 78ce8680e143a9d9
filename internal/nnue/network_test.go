package nnue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/shallownnue/internal/board"
)

func randomNetwork(hidden int, seed int64) *Network {
	net := NewNetwork(hidden)
	net.InitRandom(seed)
	return net
}

func TestNetworkEvaluate(t *testing.T) {
	net := randomNetwork(32, 7)
	vec := NewVector(board.NewPosition(), board.White)

	a, err := net.Evaluate(vec.Values())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := net.Evaluate(vec.Values())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if a != b {
		t.Errorf("Evaluate not deterministic: %d vs %d", a, b)
	}
	if a < -MaxScore || a > MaxScore {
		t.Errorf("score %d outside [-%d, %d]", a, MaxScore, MaxScore)
	}

	if _, err := net.Evaluate(make([]float32, 10)); !errors.Is(err, ErrEvaluation) {
		t.Errorf("short input error = %v, want ErrEvaluation", err)
	}
}

func TestNetworkBiasOnly(t *testing.T) {
	net := NewNetwork(2)
	net.L1Bias[0] = 0.5
	net.L1Bias[1] = 3 // clipped to 1
	net.OutputWeights[0] = 1
	net.OutputWeights[1] = 2
	net.OutputBias = 0.25

	score, err := net.Evaluate(make([]float32, InputSize))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// 0.5*1 + 1*2 + 0.25 = 2.75 pawns
	if score != 275 {
		t.Errorf("score = %d, want 275", score)
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	net := randomNetwork(16, 42)

	for _, name := range []string{"net.snue", "net.snue.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := net.SaveWeights(path); err != nil {
				t.Fatalf("SaveWeights: %v", err)
			}

			loaded, err := LoadNetwork(path)
			if err != nil {
				t.Fatalf("LoadNetwork: %v", err)
			}
			if loaded.Hidden != net.Hidden {
				t.Fatalf("hidden = %d, want %d", loaded.Hidden, net.Hidden)
			}
			if loaded.Fingerprint() != net.Fingerprint() {
				t.Errorf("fingerprint changed across save/load")
			}

			vec := NewVector(board.NewPosition(), board.White)
			want, _ := net.Evaluate(vec.Values())
			got, _ := loaded.Evaluate(vec.Values())
			if got != want {
				t.Errorf("loaded network scores %d, original %d", got, want)
			}
		})
	}
}

func TestLoadNetworkErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadNetwork(filepath.Join(dir, "absent.snue"))
		if !errors.Is(err, ErrModelLoad) {
			t.Errorf("error = %v, want ErrModelLoad", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want it to wrap os.ErrNotExist", err)
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.snue")
		if err := os.WriteFile(path, []byte("definitely not a network file"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadNetwork(path); !errors.Is(err, ErrModelLoad) {
			t.Errorf("error = %v, want ErrModelLoad", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(dir, "short.snue")
		if err := randomNetwork(8, 1).SaveWeights(path); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data[:len(data)/2], 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadNetwork(path); !errors.Is(err, ErrModelLoad) {
			t.Errorf("error = %v, want ErrModelLoad", err)
		}
	})
}

func TestFingerprintDistinguishesWeights(t *testing.T) {
	if randomNetwork(16, 1).Fingerprint() == randomNetwork(16, 2).Fingerprint() {
		t.Errorf("different weights share a fingerprint")
	}
}
