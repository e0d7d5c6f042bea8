package match

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/hailam/chessbot/internal/engine"
	"github.com/hailam/chessbot/internal/oracle"
	"github.com/hailam/chessbot/internal/storage"
)

func quickPlayer(name string, depth int) Player {
	return Player{Name: name, Options: engine.Options{MaxDepth: depth, MoveTime: 5 * time.Second}}
}

func TestRunAlternatesColours(t *testing.T) {
	is := is.New(t)
	journal, err := storage.OpenInMemory()
	is.NoErr(err)
	defer journal.Close()

	r := NewRunner(Config{
		A:        quickPlayer("shallow", 1),
		B:        quickPlayer("deeper", 2),
		Games:    4,
		Parallel: 2,
		MaxPlies: 10,
	})
	r.SetJournal(journal)

	s, err := r.Run(context.Background())
	is.NoErr(err)
	is.Equal(len(s.Games), 4)
	is.Equal(s.WinsA+s.WinsB+s.Draws+s.Unfinished, 4)

	for i, rec := range s.Games {
		if i%2 == 0 {
			is.Equal(rec.White, "shallow")
		} else {
			is.Equal(rec.White, "deeper")
		}
		is.True(rec.Plies <= 10)
		is.Equal(rec.Plies, len(rec.Moves))
		is.True(rec.PGN != "")
		is.True(lo.Contains([]string{
			storage.ResultWhiteWins, storage.ResultBlackWins, storage.ResultDraw,
		}, rec.Result))

		// Every move replays legally through the oracle.
		g := oracle.NewGame()
		for _, m := range rec.Moves {
			is.NoErr(g.Play(m))
		}
	}

	games, err := journal.ListGames(0)
	is.NoErr(err)
	is.Equal(len(games), 4)
	stats, err := journal.LoadStats()
	is.NoErr(err)
	is.Equal(stats.GamesPlayed, 4)
}

func TestRunEndsOnCheckmate(t *testing.T) {
	is := is.New(t)
	r := NewRunner(Config{
		A:        quickPlayer("a", 1),
		B:        quickPlayer("b", 1),
		Games:    2,
		StartFEN: "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2",
	})

	s, err := r.Run(context.Background())
	is.NoErr(err)
	for _, rec := range s.Games {
		is.Equal(rec.Moves, []string{"d8h4"})
		is.Equal(rec.Result, storage.ResultBlackWins)
		is.Equal(rec.Termination, "Checkmate")
	}
	// A is Black in the second game.
	is.Equal(s.WinsA, 1)
	is.Equal(s.WinsB, 1)
	is.Equal(s.Score(), 1.0)
}

func TestRunPlyLimitIsDraw(t *testing.T) {
	is := is.New(t)
	r := NewRunner(Config{
		A:        quickPlayer("a", 1),
		B:        quickPlayer("b", 1),
		Games:    1,
		MaxPlies: 2,
	})
	s, err := r.Run(context.Background())
	is.NoErr(err)
	is.Equal(s.Games[0].Plies, 2)
	is.Equal(s.Games[0].Result, storage.ResultDraw)
	is.Equal(s.Games[0].Termination, TerminationPlyLimit)
	is.Equal(s.Draws, 1)
}

func TestRunCanceled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(Config{A: quickPlayer("a", 1), B: quickPlayer("b", 1), Games: 1})
	s, err := r.Run(ctx)
	is.NoErr(err)
	is.Equal(s.Games[0].Termination, TerminationCanceled)
	is.Equal(s.Games[0].Result, storage.ResultUnknown)
	is.Equal(s.Unfinished, 1)
}

func TestConfigNormalize(t *testing.T) {
	is := is.New(t)
	c := Config{Games: -3}.normalize()
	is.Equal(c.Games, 0)
	is.Equal(c.Parallel, 1)
	is.Equal(c.MaxPlies, DefaultMaxPlies)
	is.Equal(c.StartFEN, oracle.StartFEN)
	is.True(c.A.Name != c.B.Name)
}

func TestClaimDraw(t *testing.T) {
	is := is.New(t)
	g, err := newArbiter(oracle.StartFEN)
	is.NoErr(err)

	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for _, m := range cycle {
		is.NoErr(g.MoveStr(m))
	}
	claimDraw(g, zerolog.Nop())
	is.Equal(g.Outcome(), chess.NoOutcome) // twofold only

	for _, m := range cycle {
		is.NoErr(g.MoveStr(m))
	}
	claimDraw(g, zerolog.Nop())
	is.Equal(g.Outcome(), chess.Draw)
	is.Equal(g.Method(), chess.ThreefoldRepetition)
}
