package engine

import (
	"testing"

	"github.com/matryer/is"

	"github.com/hailam/chessbot/internal/oracle"
)

func TestScoreMovesBands(t *testing.T) {
	is := is.New(t)
	mo := NewMoveOrderer()

	pawnTakesQueen := oracle.Move{From: 28, To: 35, Piece: oracle.Pawn, Captured: oracle.Queen}
	queenTakesPawn := oracle.Move{From: 3, To: 51, Piece: oracle.Queen, Captured: oracle.Pawn}
	killer := oracle.Move{From: 6, To: 21, Piece: oracle.Knight}
	quiet := oracle.Move{From: 1, To: 18, Piece: oracle.Knight}
	pvMove := oracle.Move{From: 12, To: 28, Piece: oracle.Pawn}

	mo.UpdateKillers(killer, 2)
	mo.UpdateHistory(quiet, 3)

	moves := []oracle.Move{quiet, queenTakesPawn, killer, pawnTakesQueen, pvMove}
	scores := mo.ScoreMoves(moves, 2, pvMove)

	is.Equal(scores[0], 3)
	is.Equal(scores[1], CaptureBase+100+6-5)
	is.Equal(scores[2], KillerScore1)
	is.Equal(scores[3], CaptureBase+500+6-1)
	is.Equal(scores[4], PVMoveScore)

	want := []oracle.Move{pvMove, pawnTakesQueen, queenTakesPawn, killer, quiet}
	for i := range moves {
		PickMove(moves, scores, i)
		is.Equal(moves[i], want[i])
	}
}

func TestKillersShift(t *testing.T) {
	mo := NewMoveOrderer()
	a := oracle.Move{From: 1, To: 18, Piece: oracle.Knight}
	b := oracle.Move{From: 6, To: 21, Piece: oracle.Knight}

	mo.UpdateKillers(a, 4)
	mo.UpdateKillers(b, 4)
	if k := mo.Killers(4); k[0] != b || k[1] != a {
		t.Errorf("killers = %v, want [%s %s]", k, b, a)
	}

	// Re-inserting the first killer keeps the second.
	mo.UpdateKillers(b, 4)
	if k := mo.Killers(4); k[0] != b || k[1] != a {
		t.Errorf("killers = %v after re-insert", k)
	}

	if k := mo.Killers(3); k[0] != oracle.NoMove {
		t.Errorf("killers leaked to another ply")
	}

	mo.UpdateKillers(a, MaxPly+3) // ignored
	mo.Clear()
	if k := mo.Killers(4); k[0] != oracle.NoMove || k[1] != oracle.NoMove {
		t.Errorf("Clear left killers %v", k)
	}
}

func TestHistoryAccumulates(t *testing.T) {
	mo := NewMoveOrderer()
	m := oracle.Move{From: 1, To: 18, Piece: oracle.Knight}
	other := oracle.Move{From: 6, To: 18, Piece: oracle.Knight} // same piece and target

	mo.UpdateHistory(m, 2)
	mo.UpdateHistory(m, 5)
	if got := mo.HistoryScore(other); got != 7 {
		t.Errorf("history = %d, want 7", got)
	}
	mo.Clear()
	if got := mo.HistoryScore(m); got != 0 {
		t.Errorf("history = %d after Clear", got)
	}
}
