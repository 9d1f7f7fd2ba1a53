// Package protocol defines the messages exchanged between a game runner and
// a remote agent, and the conversions between them and pkg/rbc values.
//
// Optional fields are pointers tagged omitempty: an absent field is missing
// from the encoded object, so zero values (PAWN, WHITE, square a1) stay
// unambiguous.
package protocol

import "fmt"

type Color int32

const (
	White Color = 0
	Black Color = 1
)

func (c Color) String() string {
	switch c {
	case White:
		return "WHITE"
	case Black:
		return "BLACK"
	}
	return fmt.Sprintf("Color(%d)", int32(c))
}

type PieceType int32

const (
	Pawn   PieceType = 0
	Knight PieceType = 1
	Bishop PieceType = 2
	Rook   PieceType = 3
	Queen  PieceType = 4
	King   PieceType = 5
)

var pieceTypeNames = [...]string{"PAWN", "KNIGHT", "BISHOP", "ROOK", "QUEEN", "KING"}

func (t PieceType) String() string {
	if t >= Pawn && t <= King {
		return pieceTypeNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", int32(t))
}

type Position struct {
	File int32 `json:"file"`
	Rank int32 `json:"rank"`
}

func (p Position) String() string {
	return fmt.Sprintf("(file: %d, rank: %d)", p.File, p.Rank)
}

type Piece struct {
	PieceType PieceType `json:"piece_type"`
	Color     Color     `json:"color"`
}

type Move struct {
	FromSquare   Position  `json:"from_square"`
	ToSquare     Position  `json:"to_square"`
	HasPromotion bool      `json:"has_promotion"`
	Promotion    PieceType `json:"promotion,omitempty"`
}

func (m Move) String() string {
	s := "from: " + m.FromSquare.String() + " to: " + m.ToSquare.String()
	if m.HasPromotion {
		s += " promotion: " + m.Promotion.String()
	}
	return s
}

type SenseResult struct {
	Square Position `json:"square"`
	Piece  *Piece   `json:"piece,omitempty"`
}

// Status reports a failed call in-band. The transport drops error
// responses, so a handler always answers and fills Status instead.
type Status struct {
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Ack is the reply to every notification call.
type Ack struct {
	Status
}

type GameStartRequest struct {
	Color Color `json:"color"`
}

type OpponentMoveRequest struct {
	CapturedSquare *Position `json:"captured_square,omitempty"`
}

type ChooseSenseRequest struct {
	PossibleSense []Position `json:"possible_sense"`
	PossibleMoves []Move     `json:"possible_moves"`
	SecondsLeft   float64    `json:"seconds_left"`
}

type ChooseSenseReply struct {
	Status
	SenseLocation *Position `json:"sense_location,omitempty"`
}

type SenseResultRequest struct {
	Result []SenseResult `json:"result"`
}

type ChooseMoveRequest struct {
	PossibleMoves []Move  `json:"possible_moves"`
	SecondsLeft   float64 `json:"seconds_left"`
}

type ChooseMoveReply struct {
	Status
	Move *Move `json:"move,omitempty"`
}

type MoveResultRequest struct {
	RequestedMove    Move      `json:"requested_move"`
	TakenMove        *Move     `json:"taken_move,omitempty"`
	Reason           string    `json:"reason"`
	CapturedPosition *Position `json:"captured_position,omitempty"`
}

type GameEndRequest struct {
	WinnerColor Color  `json:"winner_color"`
	WinReason   string `json:"win_reason"`
}

// RPC method names served by the remote agent.
const (
	MethodGameStart    = "RemoteAgent.HandleGameStart"
	MethodOpponentMove = "RemoteAgent.HandleOpponentMove"
	MethodChooseSense  = "RemoteAgent.ChooseSense"
	MethodSenseResult  = "RemoteAgent.HandleSenseResult"
	MethodChooseMove   = "RemoteAgent.ChooseMove"
	MethodMoveResult   = "RemoteAgent.HandleMoveResult"
	MethodGameEnd      = "RemoteAgent.HandleGameEnd"
)
