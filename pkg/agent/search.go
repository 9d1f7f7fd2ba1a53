package agent

import (
	"math"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/pkg/errors"
	"github.com/razzie/blunder/engine"

	"github.com/razzie/rbcremote/pkg/rbc"
)

// Searcher finds a move for the side to move in a FEN position.
type Searcher interface {
	BestMove(fen string) (rbc.Move, error)
	Close() error
}

var initBlunder sync.Once

// BlunderSearcher runs the built-in blunder engine.
type BlunderSearcher struct {
	search engine.Search
}

func NewBlunderSearcher(moveTime time.Duration, maxDepth int) *BlunderSearcher {
	initBlunder.Do(func() {
		engine.InitBitboards()
		engine.InitTables()
		engine.InitZobrist()
		engine.InitEvalBitboards()
		engine.InitSearchTables()
	})

	s := &BlunderSearcher{}
	s.search.TT.Resize(engine.DefaultTTSize, engine.SearchEntrySize)
	timeLeft, increment, movesToGo, maxNodeCount := engine.InfiniteTime, engine.NoValue, int16(engine.NoValue), uint64(math.MaxUint64)
	s.search.Timer.Setup(
		timeLeft,
		increment,
		moveTime.Milliseconds(),
		movesToGo,
		uint8(maxDepth),
		maxNodeCount,
	)
	return s
}

func (s *BlunderSearcher) BestMove(fen string) (move rbc.Move, err error) {
	// blunder assumes a legal position and panics on some it cannot handle
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("blunder: %v", r)
		}
	}()
	s.search.Setup(fen)
	best := s.search.Search().String()
	move, ok := rbc.ParseMove(best)
	if !ok {
		return rbc.Move{}, errors.Errorf("blunder returned unparsable move %q", best)
	}
	return move, nil
}

func (s *BlunderSearcher) Close() error {
	return nil
}

// UCISearcher asks an external UCI engine process.
type UCISearcher struct {
	eng      *uci.Engine
	moveTime time.Duration
	depth    int
}

func NewUCISearcher(path string, moveTime time.Duration, depth int) (*UCISearcher, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start UCI engine")
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, errors.Wrap(err, "failed to initialize UCI engine")
	}
	return &UCISearcher{
		eng:      eng,
		moveTime: moveTime,
		depth:    depth,
	}, nil
}

func (s *UCISearcher) BestMove(fen string) (rbc.Move, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return rbc.Move{}, err
	}
	game := chess.NewGame(opt)
	cmdPos := uci.CmdPosition{Position: game.Position()}
	cmdGo := uci.CmdGo{
		MoveTime: s.moveTime,
		Depth:    s.depth,
	}
	if err := s.eng.Run(cmdPos, cmdGo); err != nil {
		return rbc.Move{}, err
	}
	best := s.eng.SearchResults().BestMove
	if best == nil {
		return rbc.Move{}, errors.New("UCI engine returned no move")
	}
	return rbc.Move{From: best.S1(), To: best.S2(), Promo: best.Promo()}, nil
}

func (s *UCISearcher) Close() error {
	return s.eng.Close()
}
