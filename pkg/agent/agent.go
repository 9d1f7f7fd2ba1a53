// Package agent contains the decision policies served by the remote agent
// server. A new Agent is created for every game and sees the game's calls in
// protocol order, one at a time.
package agent

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// ErrNoCandidates is returned when a choice is requested from an empty list.
var ErrNoCandidates = errors.New("no candidates to choose from")

// Agent is one game's decision policy. Close releases the agent's resources
// and is called exactly once, when its session ends for whatever reason.
type Agent interface {
	io.Closer
	HandleGameStart(color rbc.Color) error
	HandleOpponentMove(captured *rbc.Square) error
	ChooseSense(req *rbc.SenseRequest) (rbc.Square, error)
	HandleSenseResult(results []rbc.SenseResult) error
	ChooseMove(req *rbc.MoveRequest) (rbc.Move, error)
	HandleMoveResult(res *rbc.MoveResult) error
	HandleGameEnd(winner rbc.Color, reason string) error
}

// BoardHistory is implemented by agents that keep a picture of the board.
// Boards returns one FEN per completed turn, the initial position first.
type BoardHistory interface {
	Boards() []string
}

// Factory creates the agent of a new game.
type Factory func() (Agent, error)

const (
	KindRandom = "random"
	KindEngine = "engine"
)

type Config struct {
	Kind       string
	EnginePath string
	MoveTime   time.Duration
	Depth      int
}

// NewFactory returns a Factory for the configured agent kind. An engine agent
// uses the external UCI engine at EnginePath if set, the built-in search
// otherwise.
func NewFactory(cfg Config, logger *zap.Logger) (Factory, error) {
	switch cfg.Kind {
	case "", KindRandom:
		return func() (Agent, error) {
			return NewRandomAgent(logger, nil), nil
		}, nil
	case KindEngine:
		return func() (Agent, error) {
			var searcher Searcher
			var err error
			if len(cfg.EnginePath) > 0 {
				searcher, err = NewUCISearcher(cfg.EnginePath, cfg.MoveTime, cfg.Depth)
			} else {
				searcher = NewBlunderSearcher(cfg.MoveTime, cfg.Depth)
			}
			if err != nil {
				return nil, err
			}
			return NewEngineAgent(logger, searcher), nil
		}, nil
	}
	return nil, errors.Errorf("unknown agent kind: %q", cfg.Kind)
}
