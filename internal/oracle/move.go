package oracle

import (
	"github.com/dylhunn/dragontoothmg"
	"github.com/pkg/errors"
)

// Square represents a square on the chess board (0-63).
// Uses Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// NewSquare creates a square from file (0-7) and rank (0-7).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// File returns the file (0-7) of the square.
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank (0-7) of the square.
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic name of the square, e.g. "e4".
func (sq Square) String() string {
	if sq > 63 {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare parses an algebraic square name.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, errors.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// PieceKind is the type of a piece, independent of colour.
type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// String returns the piece kind name.
func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the lowercase FEN character for the kind.
func (k PieceKind) Char() byte {
	return " pnbrqk"[k%7]
}

// Piece is a coloured piece standing on a square.
type Piece struct {
	Kind  PieceKind
	White bool
}

// Move identifies a legal transition of a position.
// Moves are comparable with ==; NoMove is the zero value.
type Move struct {
	From      Square
	To        Square
	Piece     PieceKind
	Captured  PieceKind
	Promotion PieceKind

	raw dragontoothmg.Move
}

// NoMove represents the absence of a move.
var NoMove = Move{}

// IsCapture reports whether the move removes an enemy piece.
func (m Move) IsCapture() bool {
	return m.Captured != NoPiece
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPiece
}

// String returns the move in UCI long algebraic notation (e.g. "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// matches reports whether m has the from/to/promotion of a UCI move string.
func (m Move) matches(from, to Square, promo PieceKind) bool {
	return m.From == from && m.To == to && m.Promotion == promo
}

// parseUCI splits a long algebraic move string into its parts.
func parseUCI(s string) (from, to Square, promo PieceKind, err error) {
	if len(s) != 4 && len(s) != 5 {
		return 0, 0, NoPiece, errors.Wrapf(ErrIllegalMove, "malformed move %q", s)
	}
	if from, err = ParseSquare(s[0:2]); err != nil {
		return 0, 0, NoPiece, errors.Wrapf(ErrIllegalMove, "malformed move %q", s)
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return 0, 0, NoPiece, errors.Wrapf(ErrIllegalMove, "malformed move %q", s)
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return 0, 0, NoPiece, errors.Wrapf(ErrIllegalMove, "bad promotion in %q", s)
		}
	}
	return from, to, promo, nil
}
