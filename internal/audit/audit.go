// Package audit replays PGN games and checks that incremental feature
// updates agree with full re-encoding at every ply.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/shallownnue/internal/board"
	"github.com/hailam/shallownnue/internal/nnue"
)

// Config controls an audit run.
type Config struct {
	Workers  int            // replay goroutines, 0 means one per CPU
	MaxGames int            // stop after this many games, 0 means all
	Oracle   nnue.Oracle    // optional, enables the forward check
	Logger   zerolog.Logger // progress and mismatch logging
}

// Report summarizes an audit run.
type Report struct {
	File       string
	Games      int
	Plies      int
	Evaluated  int
	Rejected   int // games whose moves could not be read or classified
	ByKind     map[string]int
	Mismatches []Mismatch
	Duration   time.Duration
}

// OK reports whether every replayed ply passed.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

func (r *Report) add(res GameResult) {
	r.Games++
	r.Plies += res.Plies
	r.Evaluated += res.Evaluated
	for kind, n := range res.ByKind {
		r.ByKind[kind] += n
	}
	if res.Mismatch != nil {
		r.Mismatches = append(r.Mismatches, *res.Mismatch)
		if res.Mismatch.Rejected() {
			r.Rejected++
		}
	}
}

type job struct {
	index int
	start *board.Position
	moves []string
	err   error
}

// Run audits every game in the PGN file at path. Games are decoded by one
// reader goroutine and replayed by cfg.Workers workers. Mismatches are
// collected in the report; the returned error is for I/O and decoding
// failures and cancellation only.
func Run(ctx context.Context, path string, cfg Config) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audit %s: %w", path, err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	log := cfg.Logger.With().Str("file", filepath.Base(path)).Logger()
	startTime := time.Now()

	report := &Report{File: path, ByKind: make(map[string]int)}

	g, ctx := errgroup.WithContext(ctx)

	var jobs = make(chan job)
	var results = make(chan GameResult)

	g.Go(func() error {
		defer close(jobs)
		return readGames(ctx, path, cfg.MaxGames, jobs)
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return replayGames(ctx, cfg.Oracle, jobs, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		lastLog := time.Now()
		for res := range results {
			report.add(res)
			if res.Mismatch != nil {
				log.Warn().
					Int("game", res.Mismatch.Game).
					Int("ply", res.Mismatch.Ply).
					Str("move", res.Mismatch.Move).
					Str("stage", res.Mismatch.Stage).
					Str("fen", res.Mismatch.FEN).
					AnErr("cause", res.Mismatch.Err).
					Msg("audit mismatch")
			}
			if time.Since(lastLog) > 10*time.Second {
				log.Info().
					Int("games", report.Games).
					Int("plies", report.Plies).
					Int("mismatches", len(report.Mismatches)).
					Msg("audit progress")
				lastLog = time.Now()
			}
		}
		return nil
	})

	err := g.Wait()
	report.Duration = time.Since(startTime)
	sort.Slice(report.Mismatches, func(i, j int) bool {
		return report.Mismatches[i].Game < report.Mismatches[j].Game
	})

	log.Info().
		Int("games", report.Games).
		Int("plies", report.Plies).
		Int("evaluated", report.Evaluated).
		Int("mismatches", len(report.Mismatches)).
		Int("rejected", report.Rejected).
		Dur("elapsed", report.Duration).
		Msg("audit complete")

	return report, err
}

func readGames(ctx context.Context, path string, maxGames int, jobs chan<- job) error {
	parser := pgn.Games(path)

	n := 0
	for game := range parser.Games {
		j := job{index: n, start: board.NewPosition()}
		if fen, ok := game.Tags["FEN"]; ok && fen != "" {
			j.start, j.err = board.ParseFEN(fen)
		}
		for _, mv := range game.Moves {
			j.moves = append(j.moves, mvToUCI(mv))
		}

		select {
		case jobs <- j:
		case <-ctx.Done():
			parser.Stop()
			return ctx.Err()
		}

		n++
		if maxGames > 0 && n >= maxGames {
			parser.Stop()
			break
		}
	}

	return parser.Err()
}

func replayGames(ctx context.Context, oracle nnue.Oracle, jobs <-chan job, results chan<- GameResult) error {
	for j := range jobs {
		var res GameResult
		if j.err != nil {
			res = GameResult{Game: j.index, Mismatch: &Mismatch{Game: j.index, Stage: StageParse, Err: j.err}}
		} else {
			res = ReplayGame(j.index, j.start, j.moves, oracle)
		}

		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
