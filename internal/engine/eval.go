// Package engine implements the chess AI search engine.
package engine

import (
	"github.com/hailam/chessbot/internal/oracle"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 325
	BishopValue = 325
	RookValue   = 550
	QueenValue  = 1000
	KingValue   = 50000
)

// Piece values indexed by oracle.PieceKind
var pieceValues = [7]int{0, PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue}

// Positional terms
const (
	kingOffBackRank   = -70 // King anywhere but its own back rank
	rookSeventhRank   = 25  // Rook one rank from promotion
	rookCentreBonus   = 10
	minorCentreBonus  = 20
	pawnAdvanceBonus  = 20
	centreStepPenalty = 5 // Per step away from the centre
	pawnBonusMaxToGo  = 5 // Pawns further from promotion get nothing
)

// Evaluator scores a position from the point of view of the side to move.
type Evaluator interface {
	Evaluate(b oracle.Board) int
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(b oracle.Board) int

// Evaluate calls f(b).
func (f EvaluatorFunc) Evaluate(b oracle.Board) int {
	return f(b)
}

// DefaultEvaluator is material plus simple piece placement.
var DefaultEvaluator Evaluator = EvaluatorFunc(Evaluate)

// Evaluate returns the static evaluation of b from the side to move's view.
func Evaluate(b oracle.Board) int {
	score := 0
	for sq := oracle.Square(0); sq < 64; sq++ {
		p, ok := b.PieceAt(sq)
		if !ok {
			continue
		}
		v := pieceValues[p.Kind%7] + PieceBonus(p, sq)
		if p.White {
			score += v
		} else {
			score -= v
		}
	}
	if !b.WhiteToMove() {
		score = -score
	}
	return score
}

// EvaluateMaterial returns the material balance from White's view.
func EvaluateMaterial(b oracle.Board) int {
	score := 0
	for sq := oracle.Square(0); sq < 64; sq++ {
		if p, ok := b.PieceAt(sq); ok && p.Kind != oracle.King {
			if p.White {
				score += pieceValues[p.Kind]
			} else {
				score -= pieceValues[p.Kind]
			}
		}
	}
	return score
}

// PieceBonus returns the placement bonus of p standing on sq.
func PieceBonus(p oracle.Piece, sq oracle.Square) int {
	advance := sq.Rank() // ranks from the owner's back rank
	if !p.White {
		advance = 7 - advance
	}
	toGo := 7 - advance
	fileDist := centreDistance(sq.File())
	centreDist := fileDist + centreDistance(sq.Rank())

	switch p.Kind {
	case oracle.King:
		if advance == 0 {
			return 0
		}
		return kingOffBackRank
	case oracle.Queen:
		return 0
	case oracle.Rook:
		if toGo == 1 {
			return rookSeventhRank
		}
		return max(0, rookCentreBonus-centreStepPenalty*centreDist)
	case oracle.Knight, oracle.Bishop:
		return max(0, minorCentreBonus-centreStepPenalty*centreDist)
	case oracle.Pawn:
		if toGo > pawnBonusMaxToGo {
			return 0
		}
		return max(0, pawnAdvanceBonus-centreStepPenalty*(toGo+fileDist))
	}
	return 0
}

// centreDistance is the truncated distance of a file or rank from the centre
// line: 0 for d/e (4/5), 3 for a/h (1/8).
func centreDistance(x int) int {
	d := 2*x - 7
	if d < 0 {
		d = -d
	}
	return d / 2
}
