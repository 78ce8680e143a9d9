package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigFlagsWinOverEnv(t *testing.T) {
	t.Setenv("SHALLOWNNUE_WEIGHTS", "env.snue")
	t.Setenv("SHALLOWNNUE_DB", "/tmp/env-db")
	t.Setenv("SHALLOWNNUE_NO_CACHE", "true")
	t.Setenv("SHALLOWNNUE_LOG_LEVEL", "debug")

	var cfg config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.register(fs)
	if err := fs.Parse([]string{"-weights", "flag.snue"}); err != nil {
		t.Fatal(err)
	}
	cfg.applyEnv()

	if cfg.weights != "flag.snue" {
		t.Errorf("weights = %q, want the flag value", cfg.weights)
	}
	if cfg.dbDir != "/tmp/env-db" {
		t.Errorf("dbDir = %q, want the env value", cfg.dbDir)
	}
	if !cfg.noCache {
		t.Errorf("noCache not taken from env")
	}
	if cfg.logLevel != "debug" {
		t.Errorf("logLevel = %q", cfg.logLevel)
	}
}

func TestDiscoverWeights(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if got := discoverWeights(); got != "" {
		t.Fatalf("discoverWeights = %q with no files present", got)
	}

	if err := os.MkdirAll(filepath.Join(dir, "nnue"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nnue", "shallow.snue"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := discoverWeights(); got != filepath.Join("nnue", "shallow.snue") {
		t.Errorf("discoverWeights = %q, want nnue/shallow.snue", got)
	}
}
