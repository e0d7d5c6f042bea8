package engine

import (
	"time"
)

// DefaultMoveTime is the decision budget used when the GUI sends no clock.
const DefaultMoveTime = 1000 * time.Millisecond

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Infinite  bool             // search until stopped
}

// Color indexes for UCILimits.Time and UCILimits.Inc.
const (
	White = 0
	Black = 1
)

// TimeManager turns UCI clock parameters into a per-decision budget.
type TimeManager struct {
	budget    time.Duration
	startTime time.Time
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{budget: DefaultMoveTime}
}

// Init computes the budget for a new decision.
// ply is the current game ply (half-move number).
func (tm *TimeManager) Init(limits UCILimits, whiteToMove bool, ply int) {
	tm.startTime = time.Now()

	// Fixed move time mode
	if limits.MoveTime > 0 {
		tm.budget = limits.MoveTime
		return
	}

	us := White
	if !whiteToMove {
		us = Black
	}

	// No clock: depth-limited, infinite, or a bare "go"
	if limits.Time[us] == 0 {
		if limits.Infinite || limits.Depth > 0 {
			tm.budget = 0
		} else {
			tm.budget = DefaultMoveTime
		}
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: estimate moves remaining based on game phase
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
	}

	budget := timeLeft/time.Duration(mtg) + inc*9/10

	// Never use more than 80% of what is left; the search can overrun.
	if limit := timeLeft * 8 / 10; budget > limit {
		budget = limit
	}
	if budget < 10*time.Millisecond {
		budget = 10 * time.Millisecond
	}
	tm.budget = budget
}

// Budget returns the time allotted to this decision (0 = unlimited).
func (tm *TimeManager) Budget() time.Duration {
	return tm.budget
}

// Elapsed returns the time elapsed since Init.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}
