package oracle

import (
	"fmt"
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/errors"
)

// StartFEN is the standard initial position.
const StartFEN = dragontoothmg.Startpos

const fiftyMoveLimit = 100

// Game is a Position backed by a dragontoothmg board plus the game's
// repetition history.
type Game struct {
	board   dragontoothmg.Board
	history RepetitionHistory
}

// NewGame returns a game at the initial position.
func NewGame() *Game {
	g, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return g
}

// FromFEN returns a game starting from the given FEN.
func FromFEN(fen string) (g *Game, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, errors.Errorf("invalid FEN %q: %v", fen, r)
		}
	}()
	if len(fen) == 0 {
		return nil, errors.New("empty FEN")
	}
	g = &Game{board: dragontoothmg.ParseFen(fen)}
	if err := g.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid FEN %q", fen)
	}
	g.history.Push(g.Key(), int(g.board.Halfmoveclock))
	return g, nil
}

// validate rejects positions the move generator cannot search: each side
// needs exactly one king, and the side that just moved may not be in check.
func (g *Game) validate() error {
	w, b := g.board.White.Kings, g.board.Black.Kings
	if bits.OnesCount64(w) != 1 || bits.OnesCount64(b) != 1 {
		return errors.New("each side needs exactly one king")
	}
	theirKing := b
	if !g.board.Wtomove {
		theirKing = w
	}
	if g.board.UnderDirectAttack(!g.board.Wtomove, uint8(bits.TrailingZeros64(theirKing))) {
		return errors.New("side not to move is in check")
	}
	return nil
}

// FEN returns the current position in Forsyth-Edwards notation.
func (g *Game) FEN() string {
	return g.board.ToFen()
}

// History returns the game's repetition history.
func (g *Game) History() *RepetitionHistory {
	return &g.history
}

// WhiteToMove reports whether White is to move.
func (g *Game) WhiteToMove() bool {
	return g.board.Wtomove
}

// HalfmoveClock returns the number of plies since the last capture or pawn move.
func (g *Game) HalfmoveClock() int {
	return int(g.board.Halfmoveclock)
}

// Key returns the Zobrist hash of the position.
func (g *Game) Key() Key {
	return Key(g.board.Hash())
}

// PieceAt returns the piece on sq, if any.
func (g *Game) PieceAt(sq Square) (Piece, bool) {
	if kind := kindAt(&g.board.White, sq); kind != NoPiece {
		return Piece{Kind: kind, White: true}, true
	}
	if kind := kindAt(&g.board.Black, sq); kind != NoPiece {
		return Piece{Kind: kind, White: false}, true
	}
	return Piece{}, false
}

// InCheck reports whether the side to move is in check.
func (g *Game) InCheck() bool {
	return g.board.OurKingInCheck()
}

// LegalMoves generates the legal moves. With capturesOnly set, only moves that
// remove an enemy piece are returned.
func (g *Game) LegalMoves(capturesOnly bool) []Move {
	raw := g.board.GenerateLegalMoves()
	moves := make([]Move, 0, len(raw))
	for _, dm := range raw {
		m := g.convert(dm)
		if capturesOnly && !m.IsCapture() {
			continue
		}
		moves = append(moves, m)
	}
	return moves
}

// MakeMove plays m and returns the function restoring the previous position.
// m must come from LegalMoves of this position or name a legal from/to pair;
// otherwise MakeMove panics with ErrIllegalMove.
func (g *Game) MakeMove(m Move) func() {
	dm, ok := g.lookup(m)
	if !ok {
		panic(errors.Wrapf(ErrIllegalMove, "%s in %s", m, g.FEN()))
	}
	unapply := g.board.Apply(dm)
	g.history.Push(g.Key(), int(g.board.Halfmoveclock))
	return func() {
		g.history.Pop()
		unapply()
	}
}

// MarkRoot marks the current position as the root of the next search.
func (g *Game) MarkRoot() {
	g.history.MarkRoot()
}

// IsDraw reports a draw by the fifty-move rule, insufficient material,
// repetition or stalemate.
func (g *Game) IsDraw() bool {
	if int(g.board.Halfmoveclock) >= fiftyMoveLimit {
		return true
	}
	if g.InsufficientMaterial() {
		return true
	}
	if g.history.IsRepetition() {
		return true
	}
	return !g.InCheck() && len(g.board.GenerateLegalMoves()) == 0
}

// InsufficientMaterial reports positions where neither side can mate:
// bare kings, a single minor piece, or one bishop each on the same colour.
func (g *Game) InsufficientMaterial() bool {
	w, b := &g.board.White, &g.board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	minors := bits.OnesCount64(w.Knights | w.Bishops | b.Knights | b.Bishops)
	if minors <= 1 {
		return true
	}
	if minors == 2 && w.Knights|b.Knights == 0 &&
		bits.OnesCount64(w.Bishops) == 1 && bits.OnesCount64(b.Bishops) == 1 {
		const darkSquares = 0xAA55AA55AA55AA55
		return (w.Bishops&darkSquares == 0) == (b.Bishops&darkSquares == 0)
	}
	return false
}

// Parse resolves a UCI move string against the legal moves of the position.
func (g *Game) Parse(s string) (Move, error) {
	from, to, promo, err := parseUCI(s)
	if err != nil {
		return NoMove, err
	}
	for _, m := range g.LegalMoves(false) {
		if m.matches(from, to, promo) {
			return m, nil
		}
	}
	return NoMove, errors.Wrapf(ErrIllegalMove, "%s in %s", s, g.FEN())
}

// Play applies a game move given in UCI notation. The move becomes part of the
// game history and is never undone.
func (g *Game) Play(s string) error {
	m, err := g.Parse(s)
	if err != nil {
		return err
	}
	g.MakeMove(m)
	return nil
}

// String returns a diagram of the board followed by the FEN.
func (g *Game) String() string {
	s := ""
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			c := byte('.')
			if p, ok := g.PieceAt(NewSquare(file, rank)); ok {
				c = p.Kind.Char()
				if p.White {
					c -= 'a' - 'A'
				}
			}
			s += string(c) + " "
		}
		s += "\n"
	}
	return s + fmt.Sprintf("fen: %s\nkey: %016x\n", g.FEN(), uint64(g.Key()))
}

// convert builds a Move from a generated dragontoothmg move.
func (g *Game) convert(dm dragontoothmg.Move) Move {
	us, them := &g.board.White, &g.board.Black
	if !g.board.Wtomove {
		us, them = them, us
	}
	m := Move{
		From: Square(dm.From()),
		To:   Square(dm.To()),
		raw:  dm,
	}
	m.Piece = kindAt(us, m.From)
	m.Captured = kindAt(them, m.To)
	if m.Piece == Pawn && m.Captured == NoPiece && m.From.File() != m.To.File() {
		m.Captured = Pawn // en passant
	}
	if promo := dm.Promote(); promo > 0 {
		m.Promotion = PieceKind(promo)
	}
	return m
}

// lookup resolves m to a dragontoothmg move. Moves produced by LegalMoves carry
// their encoding; hand-built moves are matched against the generated list.
func (g *Game) lookup(m Move) (dragontoothmg.Move, bool) {
	if m.raw != 0 {
		return m.raw, true
	}
	for _, dm := range g.board.GenerateLegalMoves() {
		if Square(dm.From()) == m.From && Square(dm.To()) == m.To &&
			PieceKind(dm.Promote()) == m.Promotion {
			return dm, true
		}
	}
	return 0, false
}

func kindAt(bb *dragontoothmg.Bitboards, sq Square) PieceKind {
	mask := uint64(1) << sq
	if bb.All&mask == 0 {
		return NoPiece
	}
	switch {
	case bb.Pawns&mask != 0:
		return Pawn
	case bb.Knights&mask != 0:
		return Knight
	case bb.Bishops&mask != 0:
		return Bishop
	case bb.Rooks&mask != 0:
		return Rook
	case bb.Queens&mask != 0:
		return Queen
	case bb.Kings&mask != 0:
		return King
	}
	return NoPiece
}
