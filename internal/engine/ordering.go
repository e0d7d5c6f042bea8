package engine

import (
	"github.com/hailam/chessbot/internal/oracle"
)

// Move ordering priorities
const (
	PVMoveScore  = 2000000 // PV table move gets highest priority
	CaptureBase  = 1000000 // Base score for captures
	KillerScore1 = 900000  // First killer move
	KillerScore2 = 800000  // Second killer move
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victim * 100 + 6 - attacker
var mvvLva [7][7]int

func init() {
	for victim := oracle.Pawn; victim <= oracle.King; victim++ {
		for attacker := oracle.Pawn; attacker <= oracle.King; attacker++ {
			mvvLva[victim][attacker] = int(victim)*100 + 6 - int(attacker)
		}
	}
}

// MoveOrderer handles move ordering for the search.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]oracle.Move

	// History heuristic (indexed by [piece][to])
	history [7][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a new decision.
func (mo *MoveOrderer) Clear() {
	mo.killers = [MaxPly][2]oracle.Move{}
	mo.history = [7][64]int{}
}

// ScoreMoves assigns scores to moves for ordering.
func (mo *MoveOrderer) ScoreMoves(moves []oracle.Move, ply int, pvMove oracle.Move) []int {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = mo.scoreMove(m, ply, pvMove)
	}
	return scores
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(m oracle.Move, ply int, pvMove oracle.Move) int {
	if pvMove != oracle.NoMove && m == pvMove {
		return PVMoveScore
	}

	if m.IsCapture() {
		return CaptureBase + mvvLva[m.Captured%7][m.Piece%7]
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return KillerScore1
		}
		if m == mo.killers[ply][1] {
			return KillerScore2
		}
	}

	return mo.history[m.Piece%7][m.To&63]
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves []oracle.Move, scores []int, index int) {
	best := index
	for j := index + 1; j < len(moves); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves[index], moves[best] = moves[best], moves[index]
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m oracle.Move, ply int) {
	if ply >= MaxPly {
		return
	}

	// Don't store if it's already the first killer
	if mo.killers[ply][0] == m {
		return
	}

	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// Killers returns the killer moves stored at ply.
func (mo *MoveOrderer) Killers(ply int) [2]oracle.Move {
	if ply >= MaxPly {
		return [2]oracle.Move{}
	}
	return mo.killers[ply]
}

// UpdateHistory rewards a quiet move that raised alpha.
func (mo *MoveOrderer) UpdateHistory(m oracle.Move, depth int) {
	mo.history[m.Piece%7][m.To&63] += depth
}

// HistoryScore returns the history score for a move.
func (mo *MoveOrderer) HistoryScore(m oracle.Move) int {
	return mo.history[m.Piece%7][m.To&63]
}
