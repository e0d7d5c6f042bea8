package uci

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/oracle"
	"github.com/hailam/chessbot/internal/storage"
)

func run(t *testing.T, eng *engine.Engine, journal *storage.Storage, commands ...string) string {
	t.Helper()
	var out bytes.Buffer
	u := New(eng, strings.NewReader(strings.Join(commands, "\n")+"\n"), &out)
	if journal != nil {
		u.SetJournal(journal)
	}
	if err := u.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func bestMove(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "bestmove ") {
			return strings.TrimPrefix(line, "bestmove ")
		}
	}
	t.Fatalf("no bestmove in output:\n%s", out)
	return ""
}

func newEngine() *engine.Engine {
	return engine.NewEngine(engine.Options{MaxDepth: 3, MoveTime: 5 * time.Second})
}

func TestHandshake(t *testing.T) {
	out := run(t, newEngine(), nil, "uci", "isready", "quit")
	for _, want := range []string{"id name " + EngineName, "option name MaxDepth", "uciok", "readyok"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestGoReturnsLegalMove(t *testing.T) {
	out := run(t, newEngine(), nil,
		"ucinewgame",
		"position startpos moves e2e4 e7e5",
		"go depth 2",
		"quit",
	)

	g := oracle.NewGame()
	for _, s := range []string{"e2e4", "e7e5"} {
		if err := g.Play(s); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.Parse(bestMove(t, out)); err != nil {
		t.Errorf("bestmove is not legal: %v", err)
	}
	if !strings.Contains(out, "info depth 1 ") || !strings.Contains(out, "info depth 2 ") {
		t.Errorf("missing info lines:\n%s", out)
	}
}

func TestGoFindsMate(t *testing.T) {
	is := is.New(t)
	out := run(t, newEngine(), nil,
		"position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
		"go depth 1",
	)
	is.Equal(bestMove(t, out), "a1a8")
	is.True(strings.Contains(out, "score mate 1"))
}

func TestGoWithoutLegalMoves(t *testing.T) {
	out := run(t, newEngine(), nil,
		"position fen R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1",
		"go movetime 100",
		"quit",
	)
	if got := bestMove(t, out); got != "0000" {
		t.Errorf("bestmove %s in a mated position", got)
	}
}

func TestInvalidMovesStopPositionSetup(t *testing.T) {
	var out bytes.Buffer
	u := New(newEngine(), strings.NewReader("position startpos moves e2e4 e2e4 d7d5\n"), &out)
	if err := u.Run(); err != nil {
		t.Fatal(err)
	}
	if u.game.History().Len() != 2 || u.game.WhiteToMove() {
		t.Errorf("expected only e2e4 to be applied, got %s", u.game.FEN())
	}
}

func TestSetOption(t *testing.T) {
	is := is.New(t)
	eng := newEngine()
	run(t, eng, nil,
		"setoption name MaxDepth value 4",
		"setoption name MoveTime value 250",
		"setoption name PVTableSize value 4096",
		"setoption name QuiescencePlyCap value 12",
		"setoption name MaxDepth value lots",
	)
	opts := eng.Options()
	is.Equal(opts.MaxDepth, 4)
	is.Equal(opts.MoveTime, 250*time.Millisecond)
	is.Equal(opts.PVTableSize, 4096)
	is.Equal(opts.QuiescencePlyCap, 12)
}

func TestDebugCommands(t *testing.T) {
	out := run(t, newEngine(), nil, "position startpos", "d", "eval")
	if !strings.Contains(out, "fen: ") {
		t.Errorf("d printed no FEN:\n%s", out)
	}
	if !strings.Contains(out, "info string eval 0.00") {
		t.Errorf("eval of the start position:\n%s", out)
	}
}

func TestJournal(t *testing.T) {
	is := is.New(t)
	journal, err := storage.OpenInMemory()
	is.NoErr(err)
	defer journal.Close()

	run(t, newEngine(), journal,
		"ucinewgame",
		"position startpos moves f2f3 e7e5 g2g4 d8h4",
		"ucinewgame",
		"position startpos moves e2e4",
		"setoption name Journal value false",
		"quit",
	)

	games, err := journal.ListGames(0)
	is.NoErr(err)
	is.Equal(len(games), 1)
	is.Equal(games[0].Result, storage.ResultBlackWins)
	is.Equal(games[0].Termination, "Checkmate")
	is.Equal(games[0].Plies, 4)

	stats, err := journal.LoadStats()
	is.NoErr(err)
	is.Equal(stats.BlackWins, 1)
}

func TestParseGoOptions(t *testing.T) {
	tests := []struct {
		args string
		want GoOptions
	}{
		{"", GoOptions{}},
		{"depth 6", GoOptions{Depth: 6}},
		{"movetime 1500", GoOptions{MoveTime: 1500 * time.Millisecond}},
		{"infinite", GoOptions{Infinite: true}},
		{
			"wtime 60000 btime 50000 winc 1000 binc 2000 movestogo 20",
			GoOptions{
				WTime: time.Minute, BTime: 50 * time.Second,
				WInc: time.Second, BInc: 2 * time.Second, MovesToGo: 20,
			},
		},
		{"ponder wtime 1000 depth", GoOptions{WTime: time.Second}},
	}
	for _, tt := range tests {
		if got := parseGoOptions(strings.Fields(tt.args)); got != tt.want {
			t.Errorf("parseGoOptions(%q) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score, depth int
		want         string
	}{
		{35, 4, "score cp 35"},
		{-120, 4, "score cp -120"},
		{engine.MateScore, 1, "score mate 1"},
		{engine.MateScore + 2, 5, "score mate 2"},
		{-(engine.MateScore + 1), 5, "score mate -2"},
	}
	for _, tt := range tests {
		if got := formatScore(tt.score, tt.depth); got != tt.want {
			t.Errorf("formatScore(%d, %d) = %q, want %q", tt.score, tt.depth, got, tt.want)
		}
	}
}

func TestAdjudicate(t *testing.T) {
	tests := []struct {
		fen         string
		result      string
		termination string
	}{
		{"R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", storage.ResultWhiteWins, "Checkmate"},
		{"7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", storage.ResultDraw, "Stalemate"},
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", storage.ResultDraw, "InsufficientMaterial"},
		{"8/8/8/4k3/8/8/8/R3K3 w - - 100 80", storage.ResultDraw, "FiftyMoveRule"},
		{oracle.StartFEN, storage.ResultUnknown, ""},
	}
	for _, tt := range tests {
		g, err := oracle.FromFEN(tt.fen)
		if err != nil {
			t.Fatal(err)
		}
		result, termination := Adjudicate(g)
		if result != tt.result || termination != tt.termination {
			t.Errorf("%s: got %s %q, want %s %q", tt.fen, result, termination, tt.result, tt.termination)
		}
	}
}

func TestAdjudicateThreefold(t *testing.T) {
	g := oracle.NewGame()
	for i := 0; i < 2; i++ {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			if err := g.Play(s); err != nil {
				t.Fatal(err)
			}
		}
		result, termination := Adjudicate(g)
		if i == 0 && result != storage.ResultUnknown {
			t.Errorf("twofold adjudicated as %s %s", result, termination)
		}
		if i == 1 && termination != "ThreefoldRepetition" {
			t.Errorf("threefold adjudicated as %s %q", result, termination)
		}
	}
}
