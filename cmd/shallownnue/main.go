package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/hailam/shallownnue/internal/audit"
	"github.com/hailam/shallownnue/internal/board"
	"github.com/hailam/shallownnue/internal/logx"
	"github.com/hailam/shallownnue/internal/movesource"
	"github.com/hailam/shallownnue/internal/nnue"
	"github.com/hailam/shallownnue/internal/storage"
)

// Default weight file names, searched for in order
var defaultNets = []string{"shallow.snue.zst", "shallow.snue"}

const usage = `Usage: shallownnue <command> [options]

Commands:
  analyse   score every legal move of a position
  audit     replay a PGN file and check incremental updates against resync
  genweights write a randomly initialized weight file
`

// config holds the options shared by every command. Flags win over
// SHALLOWNNUE_* environment variables.
type config struct {
	weights    string
	dbDir      string
	noCache    bool
	logLevel   string
	cpuprofile string
}

func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.weights, "weights", "", "weight file (default: auto-discover)")
	fs.StringVar(&c.dbDir, "db", "", "evaluation cache directory (default: platform data dir)")
	fs.BoolVar(&c.noCache, "no-cache", false, "disable the evaluation cache")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&c.cpuprofile, "cpuprofile", "", "write cpu profile to file")
}

func (c *config) applyEnv() {
	if c.weights == "" {
		c.weights = os.Getenv("SHALLOWNNUE_WEIGHTS")
	}
	if c.dbDir == "" {
		c.dbDir = os.Getenv("SHALLOWNNUE_DB")
	}
	if !c.noCache {
		if v, err := strconv.ParseBool(os.Getenv("SHALLOWNNUE_NO_CACHE")); err == nil {
			c.noCache = v
		}
	}
	if c.logLevel == "" {
		c.logLevel = os.Getenv("SHALLOWNNUE_LOG_LEVEL")
	}
	if c.cpuprofile == "" {
		c.cpuprofile = os.Getenv("CPUPROFILE")
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "analyse", "analyze":
		err = runAnalyse(args)
	case "audit":
		err = runAudit(args)
	case "genweights":
		err = runGenWeights(args)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup parses the shared options, starts profiling if requested and
// returns the logger plus a cleanup function.
func setup(fs *flag.FlagSet, cfg *config, args []string) (zerolog.Logger, func(), error) {
	cfg.register(fs)
	if err := fs.Parse(args); err != nil {
		return zerolog.Nop(), nil, err
	}
	cfg.applyEnv()

	logger := logx.New(os.Stderr, logx.ParseLevel(cfg.logLevel))
	cleanup := func() {}

	if cfg.cpuprofile != "" {
		f, err := os.Create(cfg.cpuprofile)
		if err != nil {
			return logger, nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return logger, nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		logger.Info().Str("path", cfg.cpuprofile).Msg("CPU profiling enabled")
		cleanup = func() {
			pprof.StopCPUProfile()
			f.Close()
		}
	}
	return logger, cleanup, nil
}

// loadEvaluator loads the configured weights, or the first default weight
// file found in the standard locations. Without either it falls back to
// random weights.
func loadEvaluator(cfg *config, logger zerolog.Logger) (*nnue.Evaluator, *nnue.Network, error) {
	path := cfg.weights
	if path == "" {
		path = discoverWeights()
	}
	if path == "" {
		logger.Warn().Msg("no weight file found, using random weights")
	}

	ev, net, err := nnue.LoadEvaluator(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().
		Str("weights", path).
		Int("hidden", net.Hidden).
		Str("fingerprint", fmt.Sprintf("%016x", net.Fingerprint())).
		Msg("network loaded")
	return ev, net, nil
}

// discoverWeights searches the standard locations for a weight file
func discoverWeights() string {
	var searchPaths []string
	if dir, err := storage.NNUEDir(); err == nil {
		searchPaths = append(searchPaths, dir) // platform data dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".shallownnue", "nnue"))
	}
	searchPaths = append(searchPaths, "./nnue", ".")

	for _, dir := range searchPaths {
		for _, name := range defaultNets {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

func openStorage(cfg *config, logger zerolog.Logger) (*storage.Storage, error) {
	if cfg.noCache {
		return nil, nil
	}
	if cfg.dbDir != "" {
		return storage.Open(cfg.dbDir, logger)
	}
	return storage.OpenDefault(logger)
}

type scoredMove struct {
	move   board.Move
	kind   nnue.Kind
	score  int
	cached bool
}

func runAnalyse(args []string) error {
	fs := flag.NewFlagSet("analyse", flag.ExitOnError)
	var cfg config
	fen := fs.String("fen", board.StartFEN, "position to analyse")
	logger, cleanup, err := setup(fs, &cfg, args)
	if err != nil {
		return err
	}
	defer cleanup()

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}
	moves, err := movesource.LegalMoves(pos)
	if err != nil {
		return err
	}

	ev, net, err := loadEvaluator(&cfg, logger)
	if err != nil {
		return err
	}
	ev.SetBoard(pos)
	model := net.Fingerprint()

	store, err := openStorage(&cfg, logger)
	if err != nil {
		return fmt.Errorf("open evaluation cache: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	scored := make([]scoredMove, 0, len(moves))
	fresh := make(map[uint64]int)
	for _, m := range moves {
		c, err := nnue.Classify(pos, m, pos.SideToMove)
		if err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
		child := pos.Copy()
		child.MakeMove(m)

		sm := scoredMove{move: m, kind: c.Kind()}
		if store != nil {
			score, ok, err := store.GetEval(model, child.Hash)
			if err != nil {
				logger.Warn().Err(err).Msg("cache lookup failed")
			}
			sm.score, sm.cached = score, ok
		}
		if !sm.cached {
			sm.score, err = ev.Forward(m)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", m, err)
			}
			fresh[child.Hash] = sm.score
		}
		scored = append(scored, sm)
	}

	if store != nil && len(fresh) > 0 {
		if err := store.PutEvals(model, fresh); err != nil {
			logger.Warn().Err(err).Msg("cache write failed")
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	static, err := ev.Evaluate()
	if err != nil {
		return err
	}
	fmt.Printf("position %s\n", pos.ToFEN())
	fmt.Printf("static   %d\n", static)
	for _, sm := range scored {
		mark := ""
		if sm.cached {
			mark = " (cached)"
		}
		fmt.Printf("%-6s %7d  %s%s\n", sm.move, sm.score, sm.kind, mark)
	}
	logger.Debug().Int("moves", len(scored)).Int("evaluated", len(fresh)).Msg("analysis complete")
	return nil
}

func runAudit(args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	var cfg config
	pgnPath := fs.String("pgn", "", "PGN file to replay (supports .zst)")
	workers := fs.Int("workers", 0, "replay workers (0 = one per CPU)")
	maxGames := fs.Int("max-games", 0, "maximum games to replay (0 = unlimited)")
	evaluate := fs.Bool("eval", false, "also check forward evaluation against direct evaluation")
	logger, cleanup, err := setup(fs, &cfg, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if *pgnPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: shallownnue audit -pgn <file.pgn[.zst]> [options]")
		fs.PrintDefaults()
		return fmt.Errorf("missing -pgn")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	acfg := audit.Config{Workers: *workers, MaxGames: *maxGames, Logger: logger}
	if *evaluate {
		_, net, err := loadEvaluator(&cfg, logger)
		if err != nil {
			return err
		}
		acfg.Oracle = net
	}

	report, err := audit.Run(ctx, *pgnPath, acfg)
	if err != nil {
		return err
	}

	store, err := openStorage(&cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("statistics not recorded")
	} else if store != nil {
		defer store.Close()
		if err := store.RecordAudit(storage.AuditResult{
			File:        report.File,
			Games:       report.Games,
			Plies:       report.Plies,
			Mismatches:  len(report.Mismatches) - report.Rejected,
			Rejected:    report.Rejected,
			MovesByKind: report.ByKind,
			Duration:    report.Duration,
		}); err != nil {
			logger.Warn().Err(err).Msg("statistics not recorded")
		} else if stats, err := store.LoadStats(); err == nil {
			logger.Info().
				Int("runs", stats.Runs).
				Int("total_plies", stats.Plies).
				Float64("mismatch_pct", stats.MismatchRate()).
				Int("clean_streak", stats.CleanStreak).
				Msg("audit history")
		}
	}

	fmt.Printf("games %d  plies %d  mismatches %d  rejected %d\n",
		report.Games, report.Plies, len(report.Mismatches)-report.Rejected, report.Rejected)
	for _, m := range report.Mismatches {
		fmt.Println(m)
	}
	if !report.OK() {
		return fmt.Errorf("%d games failed the audit", len(report.Mismatches))
	}
	return nil
}

func runGenWeights(args []string) error {
	fs := flag.NewFlagSet("genweights", flag.ExitOnError)
	var cfg config
	out := fs.String("out", defaultNets[0], "output file (.zst compresses)")
	hidden := fs.Int("hidden", nnue.DefaultHiddenSize, "hidden layer size")
	seed := fs.Int64("seed", 12345, "random seed")
	logger, cleanup, err := setup(fs, &cfg, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if *hidden <= 0 || *hidden > nnue.MaxHiddenSize {
		return fmt.Errorf("hidden size %d out of range 1..%d", *hidden, nnue.MaxHiddenSize)
	}

	net := nnue.NewNetwork(*hidden)
	net.InitRandom(*seed)
	if err := net.SaveWeights(*out); err != nil {
		return err
	}
	logger.Info().
		Str("path", *out).
		Int("hidden", *hidden).
		Str("fingerprint", fmt.Sprintf("%016x", net.Fingerprint())).
		Msg("weights written")
	return nil
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
