package agent

import (
	"github.com/notnil/chess"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// Belief is an agent's picture of the board. Own pieces are always exact;
// opponent pieces are where they were last seen.
type Belief struct {
	color    rbc.Color
	squares  map[chess.Square]chess.Piece
	lastSeen [64]int
	turn     int
}

func NewBelief(color rbc.Color) *Belief {
	b := &Belief{
		color:   color,
		squares: chess.NewGame().Position().Board().SquareMap(),
	}
	return b
}

func (b *Belief) Turn() int {
	return b.turn
}

// NextTurn advances the turn counter used to age observations.
func (b *Belief) NextTurn() {
	b.turn++
}

func (b *Belief) Piece(sq rbc.Square) rbc.Piece {
	return b.squares[sq]
}

// ApplyOwnMove moves our piece. Castling also moves the rook.
func (b *Belief) ApplyOwnMove(m rbc.Move) {
	piece, ok := b.squares[m.From]
	if !ok {
		return
	}
	delete(b.squares, m.From)
	if m.HasPromotion() {
		piece = chess.NewPiece(m.Promo, b.color)
	}
	b.squares[m.To] = piece
	b.lastSeen[m.To] = b.turn

	if piece.Type() == chess.King && m.From.Rank() == m.To.Rank() {
		rank := m.From.Rank()
		switch int(m.To.File()) - int(m.From.File()) {
		case 2:
			b.moveRook(chess.NewSquare(chess.FileH, rank), chess.NewSquare(chess.FileF, rank))
		case -2:
			b.moveRook(chess.NewSquare(chess.FileA, rank), chess.NewSquare(chess.FileD, rank))
		}
	}
}

func (b *Belief) moveRook(from, to chess.Square) {
	if rook, ok := b.squares[from]; ok && rook.Type() == chess.Rook {
		delete(b.squares, from)
		b.squares[to] = rook
	}
}

// OpponentCaptured removes our piece that was captured at sq.
func (b *Belief) OpponentCaptured(sq rbc.Square) {
	if p, ok := b.squares[sq]; ok && p.Color() == b.color {
		delete(b.squares, sq)
	}
}

// Observe overwrites the sensed squares with what was seen there. A sighted
// opponent king is removed from every other square.
func (b *Belief) Observe(results []rbc.SenseResult) {
	for _, r := range results {
		b.lastSeen[r.Square] = b.turn
		if r.Empty() {
			delete(b.squares, r.Square)
			continue
		}
		if r.Piece.Type() == chess.King && r.Piece.Color() != b.color {
			for sq, p := range b.squares {
				if p == r.Piece && sq != r.Square {
					delete(b.squares, sq)
				}
			}
		}
		b.squares[r.Square] = r.Piece
	}
}

// Searchable reports whether the board has exactly one king per side, the
// least a search engine needs.
func (b *Belief) Searchable() bool {
	var white, black int
	for _, p := range b.squares {
		switch p {
		case chess.WhiteKing:
			white++
		case chess.BlackKing:
			black++
		}
	}
	return white == 1 && black == 1
}

// FEN returns the believed position with us to move. Castling and en passant
// rights are unknown and left out.
func (b *Belief) FEN() string {
	return b.Board().String() + " " + b.color.String() + " - - 0 1"
}

func (b *Belief) Board() *chess.Board {
	squares := make(map[chess.Square]chess.Piece, len(b.squares))
	for sq, p := range b.squares {
		squares[sq] = p
	}
	return chess.NewBoard(squares)
}

// Staleness sums, over the 3x3 window centred on sq, how many turns ago each
// square was last observed.
func (b *Belief) Staleness(sq rbc.Square) int {
	total := 0
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			file := int(sq.File()) + df
			rank := int(sq.Rank()) + dr
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				continue
			}
			total += b.turn - b.lastSeen[rbc.Sq(file, rank)]
		}
	}
	return total
}
