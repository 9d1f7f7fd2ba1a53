package protocol

import (
	"github.com/notnil/chess"

	"github.com/razzie/rbcremote/pkg/rbc"
)

func NewGameStartRequest(color rbc.Color) (*GameStartRequest, error) {
	c, err := ColorToWire(color)
	if err != nil {
		return nil, err
	}
	return &GameStartRequest{Color: c}, nil
}

// NewOpponentMoveRequest builds the notice of the opponent's move. captured
// is nil unless the opponent captured one of our pieces.
func NewOpponentMoveRequest(captured *rbc.Square) *OpponentMoveRequest {
	return &OpponentMoveRequest{CapturedSquare: optionalSquare(captured)}
}

func NewChooseSenseRequest(possibleSense []rbc.Square, possibleMoves []rbc.Move, secondsLeft float64) (*ChooseSenseRequest, error) {
	moves, err := MovesToWire(possibleMoves)
	if err != nil {
		return nil, err
	}
	return &ChooseSenseRequest{
		PossibleSense: SquaresToWire(possibleSense),
		PossibleMoves: moves,
		SecondsLeft:   secondsLeft,
	}, nil
}

func NewSenseResultRequest(results []rbc.SenseResult) (*SenseResultRequest, error) {
	req := &SenseResultRequest{Result: make([]SenseResult, 0, len(results))}
	for _, r := range results {
		wr, err := SenseResultToWire(r)
		if err != nil {
			return nil, err
		}
		req.Result = append(req.Result, wr)
	}
	return req, nil
}

func NewChooseMoveRequest(possibleMoves []rbc.Move, secondsLeft float64) (*ChooseMoveRequest, error) {
	moves, err := MovesToWire(possibleMoves)
	if err != nil {
		return nil, err
	}
	return &ChooseMoveRequest{PossibleMoves: moves, SecondsLeft: secondsLeft}, nil
}

// NewMoveResultRequest builds the notice of our own move. taken is nil when
// the requested move could not be executed, captured is nil unless the
// taken move captured a piece.
func NewMoveResultRequest(requested rbc.Move, taken *rbc.Move, reason string, captured *rbc.Square) (*MoveResultRequest, error) {
	req := &MoveResultRequest{
		Reason:           reason,
		CapturedPosition: optionalSquare(captured),
	}
	var err error
	if req.RequestedMove, err = MoveToWire(requested); err != nil {
		return nil, err
	}
	if taken != nil {
		tm, err := MoveToWire(*taken)
		if err != nil {
			return nil, err
		}
		req.TakenMove = &tm
	}
	return req, nil
}

func NewGameEndRequest(winner rbc.Color, reason string) (*GameEndRequest, error) {
	c, err := ColorToWire(winner)
	if err != nil {
		return nil, err
	}
	return &GameEndRequest{WinnerColor: c, WinReason: reason}, nil
}

func NewChooseSenseReply(sq rbc.Square) *ChooseSenseReply {
	p := SquareToWire(sq)
	return &ChooseSenseReply{SenseLocation: &p}
}

func NewChooseMoveReply(m rbc.Move) (*ChooseMoveReply, error) {
	wm, err := MoveToWire(m)
	if err != nil {
		return nil, err
	}
	return &ChooseMoveReply{Move: &wm}, nil
}

// Decode returns the captured square, nil when nothing was captured.
func (r *OpponentMoveRequest) Decode() (*rbc.Square, error) {
	return optionalSquareFromWire(r.CapturedSquare)
}

func (r *ChooseSenseRequest) Decode() (*rbc.SenseRequest, error) {
	squares, err := SquaresFromWire(r.PossibleSense)
	if err != nil {
		return nil, err
	}
	moves, err := MovesFromWire(r.PossibleMoves)
	if err != nil {
		return nil, err
	}
	return &rbc.SenseRequest{
		PossibleSense: squares,
		PossibleMoves: moves,
		SecondsLeft:   r.SecondsLeft,
	}, nil
}

func (r *SenseResultRequest) Decode() ([]rbc.SenseResult, error) {
	out := make([]rbc.SenseResult, 0, len(r.Result))
	for _, wr := range r.Result {
		res, err := SenseResultFromWire(wr)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *ChooseMoveRequest) Decode() (*rbc.MoveRequest, error) {
	moves, err := MovesFromWire(r.PossibleMoves)
	if err != nil {
		return nil, err
	}
	return &rbc.MoveRequest{PossibleMoves: moves, SecondsLeft: r.SecondsLeft}, nil
}

func (r *MoveResultRequest) Decode() (*rbc.MoveResult, error) {
	requested, err := MoveFromWire(r.RequestedMove)
	if err != nil {
		return nil, err
	}
	captured, err := optionalSquareFromWire(r.CapturedPosition)
	if err != nil {
		return nil, err
	}
	res := &rbc.MoveResult{
		RequestedMove: requested,
		Reason:        r.Reason,
		Captured:      captured,
	}
	if r.TakenMove != nil {
		taken, err := MoveFromWire(*r.TakenMove)
		if err != nil {
			return nil, err
		}
		res.TakenMove = &taken
	}
	return res, nil
}

// Decode returns the chosen square, or false when the reply carries none.
func (r *ChooseSenseReply) Decode() (rbc.Square, bool, error) {
	if r == nil || r.SenseLocation == nil {
		return chess.NoSquare, false, nil
	}
	sq, err := SquareFromWire(*r.SenseLocation)
	if err != nil {
		return chess.NoSquare, false, err
	}
	return sq, true, nil
}

// Decode returns the chosen move, or false when the reply carries none.
func (r *ChooseMoveReply) Decode() (rbc.Move, bool, error) {
	if r == nil || r.Move == nil {
		return rbc.Move{}, false, nil
	}
	m, err := MoveFromWire(*r.Move)
	if err != nil {
		return rbc.Move{}, false, err
	}
	return m, true, nil
}
