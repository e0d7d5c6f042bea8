package engine

import "github.com/hailam/chessbot/internal/oracle"

// Quiesce resolves captures from the current position before trusting the
// static evaluation. The score is from the side to move's point of view.
func (s *Searcher) Quiesce(alpha, beta int) int {
	return s.quiesce(alpha, beta, 0)
}

func (s *Searcher) quiesce(alpha, beta, ply int) int {
	s.nodes++

	if s.pos.IsDraw() {
		return DrawScore
	}

	standPat := s.eval.Evaluate(s.pos)
	if ply > s.qcap {
		return clamp(standPat, alpha, beta)
	}

	// In check there is no quiet alternative to stand on: all evasions are
	// searched and having none is mate.
	inCheck := s.pos.InCheck()
	if !inCheck {
		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	moves := s.pos.LegalMoves(!inCheck)
	if inCheck && len(moves) == 0 {
		return -MateScore
	}

	scores := s.orderer.ScoreMoves(moves, ply, oracle.NoMove)
	for i := range moves {
		PickMove(moves, scores, i)

		score := -s.quiesceChild(moves[i], -beta, -alpha, ply+1)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

func (s *Searcher) quiesceChild(m oracle.Move, alpha, beta, ply int) int {
	undo := s.pos.MakeMove(m)
	defer undo()
	return s.quiesce(alpha, beta, ply)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
