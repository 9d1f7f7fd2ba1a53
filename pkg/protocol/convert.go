package protocol

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// ErrInvalidDomainValue is returned when a value has no wire or domain
// counterpart. A conformant engine never produces one.
var ErrInvalidDomainValue = errors.New("invalid domain value")

func ColorToWire(c rbc.Color) (Color, error) {
	switch c {
	case chess.White:
		return White, nil
	case chess.Black:
		return Black, nil
	}
	return 0, errors.Wrapf(ErrInvalidDomainValue, "color %d", int(c))
}

func ColorFromWire(c Color) (rbc.Color, error) {
	switch c {
	case White:
		return chess.White, nil
	case Black:
		return chess.Black, nil
	}
	return chess.NoColor, errors.Wrapf(ErrInvalidDomainValue, "wire color %d", int32(c))
}

func SquareToWire(sq rbc.Square) Position {
	return Position{File: int32(sq.File()), Rank: int32(sq.Rank())}
}

// SquareFromWire rejects positions off the 8x8 board.
func SquareFromWire(p Position) (rbc.Square, error) {
	if p.File < 0 || p.File > 7 || p.Rank < 0 || p.Rank > 7 {
		return chess.NoSquare, errors.Wrapf(ErrInvalidDomainValue, "position %s", p)
	}
	return rbc.Sq(int(p.File), int(p.Rank)), nil
}

func PieceTypeToWire(t rbc.PieceType) (PieceType, error) {
	switch t {
	case chess.Pawn:
		return Pawn, nil
	case chess.Knight:
		return Knight, nil
	case chess.Bishop:
		return Bishop, nil
	case chess.Rook:
		return Rook, nil
	case chess.Queen:
		return Queen, nil
	case chess.King:
		return King, nil
	}
	return 0, errors.Wrapf(ErrInvalidDomainValue, "piece type %d", int(t))
}

func PieceTypeFromWire(t PieceType) (rbc.PieceType, error) {
	switch t {
	case Pawn:
		return chess.Pawn, nil
	case Knight:
		return chess.Knight, nil
	case Bishop:
		return chess.Bishop, nil
	case Rook:
		return chess.Rook, nil
	case Queen:
		return chess.Queen, nil
	case King:
		return chess.King, nil
	}
	return chess.NoPieceType, errors.Wrapf(ErrInvalidDomainValue, "wire piece type %d", int32(t))
}

func PieceToWire(p rbc.Piece) (Piece, error) {
	t, err := PieceTypeToWire(p.Type())
	if err != nil {
		return Piece{}, err
	}
	c, err := ColorToWire(p.Color())
	if err != nil {
		return Piece{}, err
	}
	return Piece{PieceType: t, Color: c}, nil
}

func PieceFromWire(p Piece) (rbc.Piece, error) {
	t, err := PieceTypeFromWire(p.PieceType)
	if err != nil {
		return chess.NoPiece, err
	}
	c, err := ColorFromWire(p.Color)
	if err != nil {
		return chess.NoPiece, err
	}
	return chess.NewPiece(t, c), nil
}

func MoveToWire(m rbc.Move) (Move, error) {
	wm := Move{
		FromSquare: SquareToWire(m.From),
		ToSquare:   SquareToWire(m.To),
	}
	if m.HasPromotion() {
		promo, err := PieceTypeToWire(m.Promo)
		if err != nil {
			return Move{}, err
		}
		wm.HasPromotion = true
		wm.Promotion = promo
	}
	return wm, nil
}

func MoveFromWire(m Move) (rbc.Move, error) {
	from, err := SquareFromWire(m.FromSquare)
	if err != nil {
		return rbc.Move{}, err
	}
	to, err := SquareFromWire(m.ToSquare)
	if err != nil {
		return rbc.Move{}, err
	}
	move := rbc.NewMove(from, to)
	if m.HasPromotion {
		promo, err := PieceTypeFromWire(m.Promotion)
		if err != nil {
			return rbc.Move{}, err
		}
		move.Promo = promo
	}
	return move, nil
}

func MovesToWire(moves []rbc.Move) ([]Move, error) {
	out := make([]Move, 0, len(moves))
	for _, m := range moves {
		wm, err := MoveToWire(m)
		if err != nil {
			return nil, err
		}
		out = append(out, wm)
	}
	return out, nil
}

func MovesFromWire(moves []Move) ([]rbc.Move, error) {
	out := make([]rbc.Move, 0, len(moves))
	for _, wm := range moves {
		m, err := MoveFromWire(wm)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func SquaresToWire(squares []rbc.Square) []Position {
	out := make([]Position, 0, len(squares))
	for _, sq := range squares {
		out = append(out, SquareToWire(sq))
	}
	return out
}

func SquaresFromWire(positions []Position) ([]rbc.Square, error) {
	out := make([]rbc.Square, 0, len(positions))
	for _, p := range positions {
		sq, err := SquareFromWire(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sq)
	}
	return out, nil
}

func SenseResultToWire(r rbc.SenseResult) (SenseResult, error) {
	wr := SenseResult{Square: SquareToWire(r.Square)}
	if r.Empty() {
		return wr, nil
	}
	piece, err := PieceToWire(r.Piece)
	if err != nil {
		return SenseResult{}, err
	}
	wr.Piece = &piece
	return wr, nil
}

func SenseResultFromWire(r SenseResult) (rbc.SenseResult, error) {
	sq, err := SquareFromWire(r.Square)
	if err != nil {
		return rbc.SenseResult{}, err
	}
	result := rbc.SenseResult{Square: sq, Piece: chess.NoPiece}
	if r.Piece == nil {
		return result, nil
	}
	piece, err := PieceFromWire(*r.Piece)
	if err != nil {
		return rbc.SenseResult{}, err
	}
	result.Piece = piece
	return result, nil
}

func optionalSquare(sq *rbc.Square) *Position {
	if sq == nil {
		return nil
	}
	p := SquareToWire(*sq)
	return &p
}

func optionalSquareFromWire(p *Position) (*rbc.Square, error) {
	if p == nil {
		return nil, nil
	}
	sq, err := SquareFromWire(*p)
	if err != nil {
		return nil, err
	}
	return &sq, nil
}
