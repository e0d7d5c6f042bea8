// Package oracle defines the position services the search consumes: move
// generation, scoped make/undo, check and draw detection, position hashing and
// the decision clock. Game implements them on top of dragontoothmg.
package oracle

import (
	"time"

	"github.com/pkg/errors"
)

// Key is a 64-bit position hash. Transpositions reaching the same logical
// position share a key. It is never interpreted, only compared.
type Key uint64

// ErrIllegalMove is returned (or carried by a panic) when a move does not
// belong to the current position.
var ErrIllegalMove = errors.New("illegal move")

// Board is the read-only view of piece placement used by evaluators.
type Board interface {
	WhiteToMove() bool
	PieceAt(sq Square) (Piece, bool)
}

// Position is the mutable game state a search walks.
//
// MakeMove returns the function that restores the position. Every call must be
// paired with exactly one call of the returned undo before control leaves the
// caller's frame, on every exit path.
type Position interface {
	Board
	LegalMoves(capturesOnly bool) []Move
	MakeMove(m Move) (undo func())
	InCheck() bool
	IsDraw() bool
	Key() Key
}

// Rooter is implemented by positions that distinguish repetitions produced by
// the search from repetitions already present in the game.
type Rooter interface {
	MarkRoot()
}

// Clock reports the time spent on the current decision.
type Clock interface {
	Elapsed() time.Duration
}

// Stopwatch is a wall clock Clock.
type Stopwatch struct {
	start time.Time
}

// NewStopwatch returns a started stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Start restarts the stopwatch.
func (s *Stopwatch) Start() {
	s.start = time.Now()
}

// Elapsed returns the time since the last Start.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}
