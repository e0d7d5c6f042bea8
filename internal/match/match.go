// Package match plays self-play games between two engine configurations.
//
// The engines choose moves through the oracle; an independent notnil/chess
// game replays every move and decides when and how each game ends.
package match

import (
	"context"
	"time"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/oracle"
	"github.com/hailam/chessbot/internal/storage"
)

// Terminations that the arbiter does not report itself.
const (
	TerminationPlyLimit = "PlyLimit"
	TerminationCanceled = "Canceled"
)

// DefaultMaxPlies bounds a game when Config.MaxPlies is zero.
const DefaultMaxPlies = 200

// Player is one side of a match.
type Player struct {
	Name    string
	Options engine.Options
}

// Config describes a match.
type Config struct {
	A, B     Player
	Games    int
	Parallel int    // Games played at once (0 = 1)
	MaxPlies int    // Plies after which a game is drawn (0 = DefaultMaxPlies)
	StartFEN string // Empty for the standard starting position
}

func (c Config) normalize() Config {
	if c.A.Name == "" {
		c.A.Name = "chessbot-a"
	}
	if c.B.Name == "" {
		c.B.Name = "chessbot-b"
	}
	if c.Games < 0 {
		c.Games = 0
	}
	if c.Parallel < 1 {
		c.Parallel = 1
	}
	if c.MaxPlies <= 0 {
		c.MaxPlies = DefaultMaxPlies
	}
	if c.StartFEN == "" {
		c.StartFEN = oracle.StartFEN
	}
	return c
}

// Summary is the outcome of a match from A's point of view.
type Summary struct {
	Games      []*storage.GameRecord
	WinsA      int
	WinsB      int
	Draws      int
	Unfinished int
	Fallbacks  int // Decisions that fell back to the first legal move
}

// Score returns A's points: one per win, half per draw.
func (s *Summary) Score() float64 {
	return float64(s.WinsA) + float64(s.Draws)/2
}

// Runner plays matches.
type Runner struct {
	cfg     Config
	journal *storage.Storage
	logger  zerolog.Logger
}

// NewRunner creates a match runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:    cfg.normalize(),
		logger: zerolog.Nop(),
	}
}

// SetLogger sets the progress logger.
func (r *Runner) SetLogger(logger zerolog.Logger) {
	r.logger = logger
}

// SetJournal records every finished game to s.
func (r *Runner) SetJournal(s *storage.Storage) {
	r.journal = s
}

// Run plays every game of the match. A plays White in even-numbered games.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	records := make([]*storage.GameRecord, r.cfg.Games)
	fallbacks := make([]int, r.cfg.Games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Parallel)
	for i := 0; i < r.cfg.Games; i++ {
		i := i
		g.Go(func() error {
			rec, fb, err := r.playGame(ctx, i)
			if err != nil {
				return errors.Wrapf(err, "game %d", i)
			}
			if r.journal != nil {
				if err := r.journal.RecordGame(rec); err != nil {
					return errors.Wrapf(err, "journal game %d", i)
				}
			}
			records[i], fallbacks[i] = rec, fb
			r.logger.Info().
				Int("game", i).
				Str("white", rec.White).
				Str("black", rec.Black).
				Str("result", rec.Result).
				Str("termination", rec.Termination).
				Int("plies", rec.Plies).
				Msg("game-finished")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := r.summarize(records)
	s.Fallbacks = lo.Sum(fallbacks)
	r.logger.Info().
		Int("games", len(s.Games)).
		Int("wins-a", s.WinsA).
		Int("wins-b", s.WinsB).
		Int("draws", s.Draws).
		Float64("score-a", s.Score()).
		Int("fallbacks", s.Fallbacks).
		Msg("match-finished")
	return s, nil
}

func (r *Runner) summarize(records []*storage.GameRecord) *Summary {
	a := r.cfg.A.Name
	winner := func(rec *storage.GameRecord) string {
		switch rec.Result {
		case storage.ResultWhiteWins:
			return rec.White
		case storage.ResultBlackWins:
			return rec.Black
		}
		return ""
	}

	return &Summary{
		Games: records,
		WinsA: lo.CountBy(records, func(rec *storage.GameRecord) bool {
			return winner(rec) == a
		}),
		WinsB: lo.CountBy(records, func(rec *storage.GameRecord) bool {
			w := winner(rec)
			return w != "" && w != a
		}),
		Draws: lo.CountBy(records, func(rec *storage.GameRecord) bool {
			return rec.Result == storage.ResultDraw
		}),
		Unfinished: lo.CountBy(records, func(rec *storage.GameRecord) bool {
			return rec.Result == storage.ResultUnknown
		}),
	}
}

// playGame plays game i to its end and returns the record with the number of
// fallback decisions.
func (r *Runner) playGame(ctx context.Context, i int) (*storage.GameRecord, int, error) {
	white, black := r.cfg.A, r.cfg.B
	if i%2 == 1 {
		white, black = black, white
	}
	engines := [2]*engine.Engine{
		engine.NewEngine(white.Options),
		engine.NewEngine(black.Options),
	}
	for side, e := range engines {
		e.SetLogger(r.logger.With().Int("game", i).Int("side", side).Logger())
	}

	pos, err := oracle.FromFEN(r.cfg.StartFEN)
	if err != nil {
		return nil, 0, err
	}
	arbiter, err := newArbiter(r.cfg.StartFEN)
	if err != nil {
		return nil, 0, err
	}

	rec := &storage.GameRecord{
		ID:       storage.NewGameID(),
		White:    white.Name,
		Black:    black.Name,
		StartFEN: r.cfg.StartFEN,
		Started:  time.Now(),
	}
	fallbacks := 0

	for arbiter.Outcome() == chess.NoOutcome && len(rec.Moves) < r.cfg.MaxPlies {
		if ctx.Err() != nil {
			rec.Termination = TerminationCanceled
			break
		}

		side := 1
		if pos.WhiteToMove() {
			side = 0
		}
		d, err := engines[side].DecideMove(pos, engine.SearchLimits{})
		if err != nil {
			return nil, fallbacks, errors.Wrapf(err, "ply %d", len(rec.Moves))
		}
		if d.Fallback {
			fallbacks++
		}

		move := d.Move.String()
		if err := arbiter.MoveStr(move); err != nil {
			return nil, fallbacks, errors.Wrapf(err, "arbiter rejected %s at ply %d", move, len(rec.Moves))
		}
		if err := pos.Play(move); err != nil {
			return nil, fallbacks, err
		}
		rec.Moves = append(rec.Moves, move)
		claimDraw(arbiter, r.logger)
	}

	rec.Result = string(arbiter.Outcome())
	switch {
	case arbiter.Outcome() != chess.NoOutcome:
		rec.Termination = arbiter.Method().String()
	case rec.Termination == "":
		rec.Result = storage.ResultDraw
		rec.Termination = TerminationPlyLimit
	}
	rec.Plies = len(rec.Moves)
	rec.PGN = arbiter.String()
	rec.Duration = time.Since(rec.Started)
	return rec, fallbacks, nil
}

func newArbiter(fen string) (*chess.Game, error) {
	opts := []func(*chess.Game){chess.UseNotation(chess.UCINotation{})}
	if fen != oracle.StartFEN {
		fenOpt, err := chess.FEN(fen)
		if err != nil {
			return nil, errors.Wrap(err, "arbiter FEN")
		}
		opts = append(opts, fenOpt)
	}
	return chess.NewGame(opts...), nil
}

// claimDraw ends the game on a threefold repetition or the fifty-move rule,
// which the arbiter only reports as claimable.
func claimDraw(g *chess.Game, logger zerolog.Logger) {
	if g.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range []chess.Method{chess.ThreefoldRepetition, chess.FiftyMoveRule} {
		if !lo.Contains(g.EligibleDraws(), m) {
			continue
		}
		if err := g.Draw(m); err != nil {
			logger.Debug().Err(err).Str("method", m.String()).Msg("draw-claim-rejected")
			continue
		}
		return
	}
}
