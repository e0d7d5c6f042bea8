package main

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/storage"
	"github.com/hailam/chessbot/internal/uci"
)

var (
	depth      = flag.Int("depth", engine.DefaultOptions().MaxDepth, "maximum search depth")
	moveTime   = flag.Duration("movetime", engine.DefaultMoveTime, "time budget per move")
	pvSize     = flag.Int("pvsize", engine.DefaultPVTableSize, "PV table slots")
	logLevel   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile to this directory")
	dbDir      = flag.String("db", "", "journal directory (default: platform data directory)")
	journal    = flag.Bool("journal", false, "record finished games to the journal")
)

func main() {
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad-log-level")
	}
	logger = logger.Level(level)

	// Profiling can also be requested through the environment.
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(profilePath), profile.Quiet).Stop()
		logger.Info().Str("dir", profilePath).Msg("cpu-profiling")
	}

	opts := engine.DefaultOptions()
	opts.MaxDepth = *depth
	opts.MoveTime = *moveTime
	opts.PVTableSize = *pvSize
	eng := engine.NewEngine(opts)
	eng.SetLogger(logger)

	protocol := uci.New(eng, os.Stdin, os.Stdout)
	protocol.SetLogger(logger)

	if *journal {
		s, err := openJournal(*dbDir)
		if err != nil {
			logger.Warn().Err(err).Msg("journal-disabled")
		} else {
			defer s.Close()
			protocol.SetJournal(s)
		}
	}

	if err := protocol.Run(); err != nil {
		logger.Error().Err(err).Msg("uci-failed")
	}
}

func openJournal(dir string) (*storage.Storage, error) {
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}
