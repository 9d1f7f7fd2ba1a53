package agent

import (
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// EngineAgent tracks a belief board and plays the move a Searcher finds on
// it, falling back to random choice when the belief is unusable or the
// suggested move is not on offer. It senses where the board is least known.
type EngineAgent struct {
	*RandomAgent
	searcher Searcher
	belief   *Belief
	boards   []string
}

func NewEngineAgent(logger *zap.Logger, searcher Searcher) *EngineAgent {
	return &EngineAgent{
		RandomAgent: NewRandomAgent(logger, nil),
		searcher:    searcher,
	}
}

func (a *EngineAgent) HandleGameStart(color rbc.Color) error {
	if err := a.RandomAgent.HandleGameStart(color); err != nil {
		return err
	}
	a.belief = NewBelief(color)
	a.boards = []string{a.belief.FEN()}
	return nil
}

func (a *EngineAgent) HandleOpponentMove(captured *rbc.Square) error {
	if captured != nil {
		a.belief.OpponentCaptured(*captured)
	}
	return a.RandomAgent.HandleOpponentMove(captured)
}

func (a *EngineAgent) ChooseSense(req *rbc.SenseRequest) (rbc.Square, error) {
	if len(req.PossibleSense) == 0 {
		return 0, ErrNoCandidates
	}
	best := req.PossibleSense[0]
	bestScore := a.belief.Staleness(best)
	for _, sq := range req.PossibleSense[1:] {
		if score := a.belief.Staleness(sq); score > bestScore {
			best, bestScore = sq, score
		}
	}
	a.logger.Info("ChooseSense", zap.Stringer("chose", best), zap.Int("staleness", bestScore))
	return best, nil
}

func (a *EngineAgent) HandleSenseResult(results []rbc.SenseResult) error {
	a.belief.Observe(results)
	return a.RandomAgent.HandleSenseResult(results)
}

func (a *EngineAgent) ChooseMove(req *rbc.MoveRequest) (rbc.Move, error) {
	if len(req.PossibleMoves) == 0 {
		return rbc.Move{}, ErrNoCandidates
	}
	if !a.belief.Searchable() {
		a.logger.Debug("belief board not searchable, choosing at random")
		return a.RandomAgent.ChooseMove(req)
	}
	move, err := a.searcher.BestMove(a.belief.FEN())
	if err != nil {
		a.logger.Warn("search failed, choosing at random", zap.Error(err))
		return a.RandomAgent.ChooseMove(req)
	}
	for _, m := range req.PossibleMoves {
		if m == move {
			a.logger.Info("ChooseMove", zap.Stringer("chose", move), zap.Float64("seconds_left", req.SecondsLeft))
			return move, nil
		}
	}
	a.logger.Debug("searched move not on offer, choosing at random", zap.Stringer("move", move))
	return a.RandomAgent.ChooseMove(req)
}

func (a *EngineAgent) HandleMoveResult(res *rbc.MoveResult) error {
	if res.TakenMove != nil {
		a.belief.ApplyOwnMove(*res.TakenMove)
	}
	a.belief.NextTurn()
	a.boards = append(a.boards, a.belief.FEN())
	return a.RandomAgent.HandleMoveResult(res)
}

// Close stops the searcher.
func (a *EngineAgent) Close() error {
	return a.searcher.Close()
}

func (a *EngineAgent) Boards() []string {
	return append([]string(nil), a.boards...)
}

func (a *EngineAgent) Belief() *Belief {
	return a.belief
}
