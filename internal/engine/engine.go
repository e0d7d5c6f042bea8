package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chessbot/internal/oracle"
)

// ErrNoLegalMoves is returned when the position to decide has no legal move.
var ErrNoLegalMoves = errors.New("no legal moves")

// Options configures an Engine.
type Options struct {
	MaxDepth         int           // Iterative deepening runs depths 1..MaxDepth
	MoveTime         time.Duration // Budget polled on every search node
	PVTableSize      int           // PV table slots
	QuiescencePlyCap int           // Furthest ply from the root quiescence may reach (0 = 2*MaxDepth)
	Evaluator        Evaluator     // Leaf evaluation (nil = DefaultEvaluator)
}

// DefaultOptions returns the standard engine configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    5,
		MoveTime:    DefaultMoveTime,
		PVTableSize: DefaultPVTableSize,
	}
}

// normalize fills in defaults and clamps out-of-range values.
func (o Options) normalize() Options {
	if o.MaxDepth < 1 {
		o.MaxDepth = 1
	}
	if o.MaxDepth > MaxPly/2 {
		o.MaxDepth = MaxPly / 2
	}
	if o.MoveTime < 0 {
		o.MoveTime = 0
	}
	if o.PVTableSize <= 0 {
		o.PVTableSize = DefaultPVTableSize
	}
	if o.QuiescencePlyCap <= 0 {
		o.QuiescencePlyCap = 2 * o.MaxDepth
	}
	if o.QuiescencePlyCap > MaxPly-1 {
		o.QuiescencePlyCap = MaxPly - 1
	}
	if o.Evaluator == nil {
		o.Evaluator = DefaultEvaluator
	}
	return o
}

// SearchLimits overrides the engine options for one decision.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = Options.MaxDepth)
	MoveTime time.Duration // Time for this move (0 = Options.MoveTime)
	Infinite bool          // No time budget; only the depth bounds the search
	Clock    oracle.Clock  // Decision clock (nil = a fresh stopwatch)
}

// SearchInfo contains information about a completed depth.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []oracle.Move
	HashFull int // Permille of PV table used
}

// Decision is the result of DecideMove.
type Decision struct {
	Move     oracle.Move
	Score    int
	Depth    int
	Nodes    uint64
	PV       []oracle.Move
	Elapsed  time.Duration
	Fallback bool // Move is the first legal move, not a search result
}

// Engine is the chess AI engine.
type Engine struct {
	opts    Options
	pv      *PVTable
	orderer *MoveOrderer
	logger  zerolog.Logger

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(opts Options) *Engine {
	opts = opts.normalize()
	return &Engine{
		opts:    opts,
		pv:      NewPVTable(opts.PVTableSize),
		orderer: NewMoveOrderer(),
		logger:  zerolog.Nop(),
	}
}

// SetLogger sets the logger used for per-depth and fallback reports.
func (e *Engine) SetLogger(logger zerolog.Logger) {
	e.logger = logger
}

// Options returns the normalized engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// SetOptions replaces the engine options. The PV table is reallocated when its
// size changes.
func (e *Engine) SetOptions(opts Options) {
	opts = opts.normalize()
	if opts.PVTableSize != e.pv.Size() {
		e.pv = NewPVTable(opts.PVTableSize)
	}
	e.opts = opts
}

// Clear clears the PV table and ordering tables.
func (e *Engine) Clear() {
	e.pv.Clear()
	e.orderer.Clear()
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(b oracle.Board) int {
	return e.opts.Evaluator.Evaluate(b)
}

// DecideMove searches pos and returns the move to play.
//
// The returned move is always one of pos.LegalMoves(false). If the search
// fails to produce a usable move, or the position panics during the search,
// the first legal move is returned with Fallback set. An error is returned
// only when pos has no legal move or its legal moves cannot be generated.
func (e *Engine) DecideMove(pos oracle.Position, limits SearchLimits) (d Decision, err error) {
	clock := limits.Clock
	if clock == nil {
		clock = oracle.NewStopwatch()
	}

	var legal []oracle.Move
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if len(legal) == 0 {
			e.logger.Error().Interface("panic", r).Msg("move-generation-failed")
			d = Decision{Elapsed: clock.Elapsed()}
			err = errors.Wrapf(ErrNoLegalMoves, "move generation failed: %v", r)
			return
		}
		e.logger.Warn().
			Interface("panic", r).
			Str("fallback", legal[0].String()).
			Msg("search-failed")
		d = e.fallback(legal, d)
		d.Elapsed = clock.Elapsed()
		err = nil
	}()

	legal = pos.LegalMoves(false)
	if len(legal) == 0 {
		return Decision{Elapsed: clock.Elapsed()}, ErrNoLegalMoves
	}

	maxDepth := e.opts.MaxDepth
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly/2)
	}
	budget := e.opts.MoveTime
	if limits.MoveTime > 0 {
		budget = limits.MoveTime
	}
	if limits.Infinite {
		budget = 0
	}

	// Per-decision state starts empty.
	e.Clear()
	if r, ok := pos.(oracle.Rooter); ok {
		r.MarkRoot()
	}

	s := NewSearcher(pos, e.opts.Evaluator, e.orderer, e.pv)
	s.SetDeadline(clock, budget)
	s.SetQuiescencePlyCap(max(e.opts.QuiescencePlyCap, maxDepth+1))

	for depth := 1; depth <= maxDepth; depth++ {
		score := s.Search(-Infinity, Infinity, depth)
		line := e.principalVariation(pos, maxDepth)

		if len(line) > 0 && lo.Contains(legal, line[0]) {
			d.Move = line[0]
			d.Score = score
			d.Depth = depth
			d.PV = line
		}
		d.Nodes = s.Nodes()

		e.logger.Debug().
			Int("depth", depth).
			Int("score", score).
			Uint64("nodes", s.Nodes()).
			Str("pv", FormatPV(line)).
			Dur("elapsed", clock.Elapsed()).
			Msg("depth-complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.Nodes(),
				Time:     clock.Elapsed(),
				PV:       line,
				HashFull: e.pv.HashFull(),
			})
		}
	}

	if d.Move == oracle.NoMove {
		e.logger.Warn().
			Str("fallback", legal[0].String()).
			Msg("no-pv-move")
		d = e.fallback(legal, d)
	}
	d.Elapsed = clock.Elapsed()
	return d, nil
}

// fallback replaces the decided move with the first legal move.
func (e *Engine) fallback(legal []oracle.Move, d Decision) Decision {
	d.Move = legal[0]
	d.PV = []oracle.Move{legal[0]}
	d.Fallback = true
	return d
}

// principalVariation follows the PV table from pos, playing each stored move
// while it is legal, and restores pos before returning.
func (e *Engine) principalVariation(pos oracle.Position, maxLen int) []oracle.Move {
	var line []oracle.Move
	var undos []func()
	defer func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}()

	for len(line) < maxLen {
		m, ok := e.pv.Probe(pos.Key())
		if !ok || !lo.Contains(pos.LegalMoves(false), m) {
			break
		}
		line = append(line, m)
		undos = append(undos, pos.MakeMove(m))
	}
	return line
}

// FormatPV joins moves in UCI notation.
func FormatPV(pv []oracle.Move) string {
	return strings.Join(lo.Map(pv, func(m oracle.Move, _ int) string {
		return m.String()
	}), " ")
}

// IsMateScore reports whether score announces a forced mate.
func IsMateScore(score int) bool {
	return score >= MateScore || score <= -MateScore
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score >= MateScore {
		return "Mate"
	}
	if score <= -MateScore {
		return "Mated"
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
