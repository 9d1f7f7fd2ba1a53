// Package connector lets a local game runner play through a remote agent.
package connector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/agent"
	"github.com/razzie/rbcremote/pkg/protocol"
	"github.com/razzie/rbcremote/pkg/rbc"
)

const DefaultCallTimeout = 10 * time.Second

// ErrTransport matches every TransportError.
var ErrTransport = errors.New("transport failure")

var errNoChoice = errors.New("reply carries no choice")

type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return e.Method + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Fallback chooses locally when the remote agent cannot.
type Fallback interface {
	ChooseSense(req *rbc.SenseRequest) (rbc.Square, error)
	ChooseMove(req *rbc.MoveRequest) (rbc.Move, error)
}

type Options struct {
	CallTimeout time.Duration
	Fallback    Fallback
	Logger      *zap.Logger
}

// Player forwards one game's calls to a remote agent. Choice calls never
// fail because of the transport: they fall back to Options.Fallback.
// Notification calls log and return transport failures, which callers may
// ignore.
type Player struct {
	transport   Transport
	callTimeout time.Duration
	fallback    Fallback
	logger      *zap.Logger
}

func NewPlayer(transport Transport, opts Options) *Player {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Fallback == nil {
		opts.Fallback = agent.NewRandomAgent(opts.Logger, nil)
	}
	return &Player{
		transport:   transport,
		callTimeout: opts.CallTimeout,
		fallback:    opts.Fallback,
		logger:      opts.Logger,
	}
}

// Dial connects a new Player to the agent server at serverAddr.
func Dial(serverAddr string, opts Options) (*Player, error) {
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	conn, err := NewConnection(serverAddr, timeout)
	if err != nil {
		return nil, &TransportError{Method: "dial", Err: err}
	}
	return NewPlayer(conn, opts), nil
}

// statusReply is implemented by every reply type.
type statusReply interface {
	Err() error
}

func (p *Player) call(ctx context.Context, method string, args interface{}, reply statusReply) error {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	if err := p.transport.Call(ctx, method, args, reply); err != nil {
		return &TransportError{Method: method, Err: err}
	}
	if err := reply.Err(); err != nil {
		return &TransportError{Method: method, Err: err}
	}
	return nil
}

func (p *Player) notify(ctx context.Context, method string, args interface{}) error {
	var ack protocol.Ack
	if err := p.call(ctx, method, args, &ack); err != nil {
		p.logger.Warn("notification failed", zap.String("method", method), zap.Error(err))
		return err
	}
	return nil
}

func (p *Player) HandleGameStart(ctx context.Context, color rbc.Color) error {
	req, err := protocol.NewGameStartRequest(color)
	if err != nil {
		return err
	}
	return p.notify(ctx, protocol.MethodGameStart, req)
}

// HandleOpponentMove reports the opponent's move. captured is nil unless one
// of our pieces was captured.
func (p *Player) HandleOpponentMove(ctx context.Context, captured *rbc.Square) error {
	return p.notify(ctx, protocol.MethodOpponentMove, protocol.NewOpponentMoveRequest(captured))
}

func (p *Player) ChooseSense(ctx context.Context, possibleSense []rbc.Square, possibleMoves []rbc.Move, secondsLeft float64) (rbc.Square, error) {
	req, err := protocol.NewChooseSenseRequest(possibleSense, possibleMoves, secondsLeft)
	if err != nil {
		return 0, err
	}
	var reply protocol.ChooseSenseReply
	err = p.call(ctx, protocol.MethodChooseSense, req, &reply)
	if err == nil {
		var sq rbc.Square
		var ok bool
		if sq, ok, err = reply.Decode(); err == nil && ok {
			return sq, nil
		}
		if err == nil {
			err = errNoChoice
		}
	}
	p.logger.Warn("ChooseSense failed, choosing locally", zap.Error(err))
	return p.fallback.ChooseSense(&rbc.SenseRequest{
		PossibleSense: possibleSense,
		PossibleMoves: possibleMoves,
		SecondsLeft:   secondsLeft,
	})
}

func (p *Player) HandleSenseResult(ctx context.Context, results []rbc.SenseResult) error {
	req, err := protocol.NewSenseResultRequest(results)
	if err != nil {
		return err
	}
	return p.notify(ctx, protocol.MethodSenseResult, req)
}

func (p *Player) ChooseMove(ctx context.Context, possibleMoves []rbc.Move, secondsLeft float64) (rbc.Move, error) {
	req, err := protocol.NewChooseMoveRequest(possibleMoves, secondsLeft)
	if err != nil {
		return rbc.Move{}, err
	}
	var reply protocol.ChooseMoveReply
	err = p.call(ctx, protocol.MethodChooseMove, req, &reply)
	if err == nil {
		var move rbc.Move
		var ok bool
		if move, ok, err = reply.Decode(); err == nil && ok {
			return move, nil
		}
		if err == nil {
			err = errNoChoice
		}
	}
	p.logger.Warn("ChooseMove failed, choosing locally", zap.Error(err))
	return p.fallback.ChooseMove(&rbc.MoveRequest{
		PossibleMoves: possibleMoves,
		SecondsLeft:   secondsLeft,
	})
}

// HandleMoveResult reports our own move. taken is nil when the requested move
// could not be executed; captured is nil unless it captured a piece.
func (p *Player) HandleMoveResult(ctx context.Context, requested rbc.Move, taken *rbc.Move, reason string, captured *rbc.Square) error {
	req, err := protocol.NewMoveResultRequest(requested, taken, reason, captured)
	if err != nil {
		return err
	}
	return p.notify(ctx, protocol.MethodMoveResult, req)
}

func (p *Player) HandleGameEnd(ctx context.Context, winner rbc.Color, reason string) error {
	req, err := protocol.NewGameEndRequest(winner, reason)
	if err != nil {
		return err
	}
	return p.notify(ctx, protocol.MethodGameEnd, req)
}

func (p *Player) Close() error {
	return p.transport.Close()
}
