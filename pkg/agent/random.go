package agent

import (
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// RandomAgent senses and moves uniformly at random. It is not safe for
// concurrent use.
type RandomAgent struct {
	logger *zap.Logger
	rng    *rand.Rand
	color  rbc.Color
}

// NewRandomAgent returns a RandomAgent drawing from src, or from a time seeded
// source if src is nil.
func NewRandomAgent(logger *zap.Logger, src rand.Source) *RandomAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &RandomAgent{
		logger: logger,
		rng:    rand.New(src),
	}
}

func (a *RandomAgent) Color() rbc.Color {
	return a.color
}

func (a *RandomAgent) HandleGameStart(color rbc.Color) error {
	a.color = color
	a.logger.Info("HandleGameStart", zap.String("color", color.Name()))
	return nil
}

func (a *RandomAgent) HandleOpponentMove(captured *rbc.Square) error {
	if captured != nil {
		a.logger.Debug("opponent captured", zap.Stringer("square", *captured))
	} else {
		a.logger.Debug("no capture this round")
	}
	return nil
}

func (a *RandomAgent) ChooseSense(req *rbc.SenseRequest) (rbc.Square, error) {
	if len(req.PossibleSense) == 0 {
		return 0, ErrNoCandidates
	}
	choice := req.PossibleSense[a.rng.Intn(len(req.PossibleSense))]
	a.logger.Info("ChooseSense", zap.Stringer("chose", choice), zap.Int("candidates", len(req.PossibleSense)))
	return choice, nil
}

func (a *RandomAgent) HandleSenseResult(results []rbc.SenseResult) error {
	if ce := a.logger.Check(zap.DebugLevel, "sense result"); ce != nil {
		ce.Write(zap.String("result", senseResultsString(results)))
	}
	return nil
}

func (a *RandomAgent) ChooseMove(req *rbc.MoveRequest) (rbc.Move, error) {
	if len(req.PossibleMoves) == 0 {
		return rbc.Move{}, ErrNoCandidates
	}
	choice := req.PossibleMoves[a.rng.Intn(len(req.PossibleMoves))]
	a.logger.Info("ChooseMove",
		zap.Stringer("chose", choice),
		zap.Int("candidates", len(req.PossibleMoves)),
		zap.Float64("seconds_left", req.SecondsLeft))
	return choice, nil
}

func (a *RandomAgent) HandleMoveResult(res *rbc.MoveResult) error {
	fields := []zap.Field{zap.Stringer("requested", res.RequestedMove), zap.String("reason", res.Reason)}
	if res.TakenMove != nil {
		fields = append(fields, zap.Stringer("taken", *res.TakenMove))
	}
	if res.Captured != nil {
		fields = append(fields, zap.Stringer("captured", *res.Captured))
	}
	a.logger.Debug("move result", fields...)
	return nil
}

func (a *RandomAgent) HandleGameEnd(winner rbc.Color, reason string) error {
	a.logger.Info("HandleGameEnd",
		zap.Bool("won", winner == a.color),
		zap.String("winner", winner.Name()),
		zap.String("reason", reason))
	return nil
}

func (a *RandomAgent) Close() error {
	return nil
}

func senseResultsString(results []rbc.SenseResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Empty() {
			parts = append(parts, r.Square.String()+": empty")
		} else {
			parts = append(parts, r.Square.String()+": "+r.Piece.String())
		}
	}
	return strings.Join(parts, ", ")
}
