package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/match"
	"github.com/hailam/chessbot/internal/storage"
)

var (
	games      = flag.Int("games", 10, "number of games")
	parallel   = flag.Int("parallel", runtime.NumCPU(), "games played at once")
	depthA     = flag.Int("depth-a", 3, "search depth of engine A")
	depthB     = flag.Int("depth-b", 5, "search depth of engine B")
	moveTime   = flag.Duration("movetime", engine.DefaultMoveTime, "time budget per move")
	pvSize     = flag.Int("pvsize", engine.DefaultPVTableSize, "PV table slots")
	maxPlies   = flag.Int("max-plies", match.DefaultMaxPlies, "plies before a game is drawn")
	fen        = flag.String("fen", "", "starting position (default: standard)")
	logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile to this directory")
	dbDir      = flag.String("db", "", "journal directory (default: platform data directory)")
	noJournal  = flag.Bool("no-journal", false, "do not record games")
)

func main() {
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad-log-level")
	}
	logger = logger.Level(level)

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.Quiet).Stop()
	}

	player := func(name string, depth int) match.Player {
		opts := engine.DefaultOptions()
		opts.MaxDepth = depth
		opts.MoveTime = *moveTime
		opts.PVTableSize = *pvSize
		return match.Player{Name: fmt.Sprintf("%s-d%d", name, depth), Options: opts}
	}
	runner := match.NewRunner(match.Config{
		A:        player("a", *depthA),
		B:        player("b", *depthB),
		Games:    *games,
		Parallel: *parallel,
		MaxPlies: *maxPlies,
		StartFEN: *fen,
	})
	runner.SetLogger(logger)

	if !*noJournal {
		var s *storage.Storage
		if *dbDir == "" {
			s, err = storage.NewStorage()
		} else {
			s, err = storage.Open(*dbDir)
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("open-journal")
		}
		defer s.Close()
		runner.SetJournal(s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("match-failed")
		return
	}
	fmt.Printf("A %d  B %d  draws %d  unfinished %d  score %.1f/%d\n",
		summary.WinsA, summary.WinsB, summary.Draws, summary.Unfinished,
		summary.Score(), len(summary.Games))
}
