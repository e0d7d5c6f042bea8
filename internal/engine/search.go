package engine

import (
	"time"

	"github.com/hailam/chessbot/internal/oracle"
)

// Search constants
const (
	Infinity  = 100000000
	MateScore = 100000
	DrawScore = 0
	MaxPly    = 64
)

// Searcher performs the alpha-beta search for one decision.
// It owns the position for the duration of the search; nothing it holds is
// shared with another decision.
type Searcher struct {
	pos     oracle.Position
	eval    Evaluator
	orderer *MoveOrderer
	pv      *PVTable

	clock  oracle.Clock
	budget time.Duration
	qcap   int

	nodes uint64
}

// NewSearcher creates a searcher over pos using the given tables.
func NewSearcher(pos oracle.Position, eval Evaluator, orderer *MoveOrderer, pv *PVTable) *Searcher {
	if eval == nil {
		eval = DefaultEvaluator
	}
	return &Searcher{
		pos:     pos,
		eval:    eval,
		orderer: orderer,
		pv:      pv,
		qcap:    MaxPly,
	}
}

// SetDeadline makes the search fall into quiescence once clock reports more
// than budget. A zero budget disables the check.
func (s *Searcher) SetDeadline(clock oracle.Clock, budget time.Duration) {
	s.clock = clock
	s.budget = budget
}

// SetQuiescencePlyCap bounds the distance from the root quiescence may reach.
func (s *Searcher) SetQuiescencePlyCap(plies int) {
	if plies <= 0 || plies > MaxPly {
		plies = MaxPly
	}
	s.qcap = plies
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search runs a fail-hard negamax search of the root to depth plies.
// The score is from the side to move's point of view.
func (s *Searcher) Search(alpha, beta, depth int) int {
	return s.negamax(alpha, beta, depth, 0)
}

func (s *Searcher) outOfTime() bool {
	return s.clock != nil && s.budget > 0 && s.clock.Elapsed() >= s.budget
}

func (s *Searcher) negamax(alpha, beta, depth, ply int) int {
	// The root always expands its moves, even past the budget.
	if depth <= 0 || (ply > 0 && s.outOfTime()) {
		return s.quiesce(alpha, beta, ply)
	}
	s.nodes++

	if s.pos.IsDraw() {
		return DrawScore
	}

	moves := s.pos.LegalMoves(false)
	if len(moves) == 0 {
		if s.pos.InCheck() {
			return -(MateScore + depth)
		}
		return DrawScore
	}

	key := s.pos.Key()
	pvMove, _ := s.pv.Probe(key)
	scores := s.orderer.ScoreMoves(moves, ply, pvMove)

	oldAlpha := alpha
	bestMove := oracle.NoMove
	for i := range moves {
		PickMove(moves, scores, i)
		m := moves[i]

		score := -s.searchChild(m, -beta, -alpha, depth-1, ply+1)

		if score >= beta {
			if !m.IsCapture() {
				s.orderer.UpdateKillers(m, ply)
			}
			return beta
		}
		if score > alpha {
			alpha = score
			bestMove = m
			if !m.IsCapture() {
				s.orderer.UpdateHistory(m, depth)
			}
		}
	}

	if alpha != oldAlpha {
		s.pv.Store(key, bestMove)
	}
	return alpha
}

// searchChild plays m, searches the resulting position and takes the move
// back on every exit path.
func (s *Searcher) searchChild(m oracle.Move, alpha, beta, depth, ply int) int {
	undo := s.pos.MakeMove(m)
	defer undo()
	return s.negamax(alpha, beta, depth, ply)
}
