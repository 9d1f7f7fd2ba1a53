// Package rbc holds the in-process values exchanged with a reconnaissance
// blind chess agent. Squares, pieces and colors come straight from
// github.com/notnil/chess.
package rbc

import (
	"github.com/notnil/chess"
)

type (
	Color     = chess.Color
	Square    = chess.Square
	PieceType = chess.PieceType
	Piece     = chess.Piece
)

// Move is a requested or executed move. Promo is chess.NoPieceType unless a
// pawn promotes.
type Move struct {
	From  Square
	To    Square
	Promo PieceType
}

func NewMove(from, to Square) Move {
	return Move{From: from, To: to, Promo: chess.NoPieceType}
}

func (m Move) HasPromotion() bool {
	return m.Promo != chess.NoPieceType
}

// String returns the move in UCI notation (like e7e8q)
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.HasPromotion() {
		s += promoSuffix[m.Promo]
	}
	return s
}

var promoSuffix = map[PieceType]string{
	chess.Knight: "n",
	chess.Bishop: "b",
	chess.Rook:   "r",
	chess.Queen:  "q",
	chess.King:   "k",
	chess.Pawn:   "p",
}

// SenseResult is the content of one sensed square. Piece is chess.NoPiece
// when the square is empty.
type SenseResult struct {
	Square Square
	Piece  Piece
}

func (r SenseResult) Empty() bool {
	return r.Piece == chess.NoPiece
}

// Sq builds a square from zero based file and rank.
func Sq(file, rank int) Square {
	return chess.NewSquare(chess.File(file), chess.Rank(rank))
}

// ParseMove parses a move in UCI notation.
func ParseMove(s string) (Move, bool) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, false
	}
	from, ok := parseSquare(s[0:2])
	if !ok {
		return Move{}, false
	}
	to, ok := parseSquare(s[2:4])
	if !ok {
		return Move{}, false
	}
	move := NewMove(from, to)
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			move.Promo = chess.Knight
		case 'b':
			move.Promo = chess.Bishop
		case 'r':
			move.Promo = chess.Rook
		case 'q':
			move.Promo = chess.Queen
		default:
			return Move{}, false
		}
	}
	return move, true
}

func parseSquare(coordinate string) (Square, bool) {
	file := int(coordinate[0]) - 'a'
	rank := int(coordinate[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return chess.NoSquare, false
	}
	return Sq(file, rank), true
}

// SenseRequest offers the squares that may be sensed this turn.
type SenseRequest struct {
	PossibleSense []Square
	PossibleMoves []Move
	SecondsLeft   float64
}

type MoveRequest struct {
	PossibleMoves []Move
	SecondsLeft   float64
}

// MoveResult reports the outcome of our own move. TakenMove is nil when the
// requested move could not be executed and Captured is nil unless the taken
// move captured a piece.
type MoveResult struct {
	RequestedMove Move
	TakenMove     *Move
	Reason        string
	Captured      *Square
}
