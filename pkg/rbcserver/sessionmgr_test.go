package rbcserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/agent"
	"github.com/razzie/rbcremote/pkg/protocol"
	"github.com/razzie/rbcremote/pkg/rbc"
)

// recordingAgent remembers what its game told it.
type recordingAgent struct {
	*agent.RandomAgent
	mtx     sync.Mutex
	color   rbc.Color
	moves   int
	senses  [][]rbc.SenseResult
	ended   bool
	endErr  error
	history []string
	closed  int
	panics  bool
}

func newRecordingAgent() *recordingAgent {
	return &recordingAgent{RandomAgent: agent.NewRandomAgent(zap.NewNop(), nil)}
}

func (a *recordingAgent) HandleGameStart(color rbc.Color) error {
	a.color = color
	return a.RandomAgent.HandleGameStart(color)
}

func (a *recordingAgent) HandleSenseResult(results []rbc.SenseResult) error {
	a.senses = append(a.senses, results)
	return nil
}

func (a *recordingAgent) ChooseMove(req *rbc.MoveRequest) (rbc.Move, error) {
	a.mtx.Lock()
	a.moves++
	a.mtx.Unlock()
	return a.RandomAgent.ChooseMove(req)
}

func (a *recordingAgent) HandleGameEnd(winner rbc.Color, reason string) error {
	a.ended = true
	return a.endErr
}

func (a *recordingAgent) ChooseSense(req *rbc.SenseRequest) (rbc.Square, error) {
	if a.panics {
		panic("sense table corrupted")
	}
	return a.RandomAgent.ChooseSense(req)
}

func (a *recordingAgent) Boards() []string {
	return a.history
}

func (a *recordingAgent) Close() error {
	a.closed++
	return nil
}

func newTestMgr(t *testing.T, agents *[]*recordingAgent, records RecordStore) *SessionMgr {
	t.Helper()
	var mtx sync.Mutex
	return NewSessionMgr(Options{
		Factory: func() (agent.Agent, error) {
			a := newRecordingAgent()
			mtx.Lock()
			*agents = append(*agents, a)
			mtx.Unlock()
			return a, nil
		},
		Workers: 4,
		Records: records,
	})
}

func chooseMoveRequest(t *testing.T) *protocol.ChooseMoveRequest {
	req, err := protocol.NewChooseMoveRequest([]rbc.Move{rbc.NewMove(chess.A2, chess.A3)}, 9.5)
	require.NoError(t, err)
	return req
}

func TestDispatcherLifecycle(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)

	_, err := mgr.OnChooseMove("peer", chooseMoveRequest(t))
	assert.True(t, errors.Is(err, ErrUnknownSession))

	err = mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White})
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Sessions())

	reply, err := mgr.OnChooseMove("peer", chooseMoveRequest(t))
	require.NoError(t, err)
	m, ok, err := reply.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rbc.NewMove(chess.A2, chess.A3), m)

	err = mgr.OnGameEnd("peer", &protocol.GameEndRequest{WinnerColor: protocol.White, WinReason: "checkmate"})
	require.NoError(t, err)
	assert.Equal(t, 0, mgr.Sessions())
	require.Len(t, agents, 1)
	assert.True(t, agents[0].ended)

	_, err = mgr.OnChooseMove("peer", chooseMoveRequest(t))
	assert.True(t, errors.Is(err, ErrUnknownSession))
	err = mgr.OnOpponentMove("peer", &protocol.OpponentMoveRequest{})
	assert.True(t, errors.Is(err, ErrUnknownSession))
	err = mgr.OnGameEnd("peer", &protocol.GameEndRequest{})
	assert.True(t, errors.Is(err, ErrUnknownSession))
}

func TestGameEndRemovesSessionOnAgentError(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)

	err := mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.Black})
	require.NoError(t, err)
	agents[0].endErr = errors.New("agent crashed")

	err = mgr.OnGameEnd("peer", &protocol.GameEndRequest{WinnerColor: protocol.White})
	assert.Error(t, err)
	assert.Equal(t, 0, mgr.Sessions())
	assert.Equal(t, 1, agents[0].closed)
}

func TestGameEndWithInvalidWinnerKeepsSession(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	require.NoError(t, mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White}))

	err := mgr.OnGameEnd("peer", &protocol.GameEndRequest{WinnerColor: protocol.Color(5)})
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))
	assert.Equal(t, 1, mgr.Sessions())
	assert.False(t, agents[0].ended)
	assert.Equal(t, 0, agents[0].closed)

	require.NoError(t, mgr.OnGameEnd("peer", &protocol.GameEndRequest{WinnerColor: protocol.Black}))
	assert.Equal(t, 1, agents[0].closed)
}

func TestDuplicateGameStart(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)

	err := mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White})
	require.NoError(t, err)
	err = mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.Black})
	assert.True(t, errors.Is(err, ErrDuplicateSession))

	// no agent is built for the rejected start and the first is untouched
	require.Len(t, agents, 1)
	assert.Equal(t, chess.White, agents[0].color)
	assert.Equal(t, 0, agents[0].closed)

	err = mgr.OnGameEnd("peer", &protocol.GameEndRequest{})
	require.NoError(t, err)
	err = mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.Black})
	assert.NoError(t, err)
	assert.Len(t, agents, 2)
}

func TestInvalidColorRejected(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	err := mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.Color(3)})
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))
	assert.Equal(t, 0, mgr.Sessions())
}

func TestSessionIsolation(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)

	const calls = 50
	peers := []struct {
		name  string
		color protocol.Color
	}{{"white-peer", protocol.White}, {"black-peer", protocol.Black}}

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(peer string, color protocol.Color) {
			defer wg.Done()
			err := mgr.OnGameStart(peer, &protocol.GameStartRequest{Color: color})
			assert.NoError(t, err)
			for i := 0; i < calls; i++ {
				_, err := mgr.OnChooseMove(peer, chooseMoveRequest(t))
				assert.NoError(t, err)
			}
		}(p.name, p.color)
	}
	wg.Wait()

	require.Len(t, agents, 2)
	colors := map[rbc.Color]bool{}
	for _, a := range agents {
		assert.Equal(t, calls, a.moves)
		colors[a.color] = true
	}
	assert.Len(t, colors, 2)

	err := mgr.OnGameEnd("white-peer", &protocol.GameEndRequest{})
	require.NoError(t, err)
	_, err = mgr.OnChooseMove("black-peer", chooseMoveRequest(t))
	assert.NoError(t, err, "ending one peer's game leaves the other alone")
}

func TestSenseResultsSortedByRankThenFile(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	err := mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White})
	require.NoError(t, err)

	req, err := protocol.NewSenseResultRequest([]rbc.SenseResult{
		{Square: chess.C3}, {Square: chess.A3}, {Square: chess.B2}, {Square: chess.A2},
	})
	require.NoError(t, err)
	err = mgr.OnSenseResult("peer", req)
	require.NoError(t, err)

	require.Len(t, agents[0].senses, 1)
	var order []rbc.Square
	for _, r := range agents[0].senses[0] {
		order = append(order, r.Square)
	}
	assert.Equal(t, []rbc.Square{chess.A2, chess.B2, chess.A3, chess.C3}, order)
}

func TestDroppedPeer(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	err := mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White})
	require.NoError(t, err)

	mgr.dropPeer("peer")
	assert.Equal(t, 0, mgr.Sessions())
	mgr.dropPeer("peer")
	assert.Equal(t, 1, agents[0].closed)
}

func TestCloseReleasesAgents(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	require.NoError(t, mgr.OnGameStart("a", &protocol.GameStartRequest{Color: protocol.White}))
	require.NoError(t, mgr.OnGameStart("b", &protocol.GameStartRequest{Color: protocol.Black}))

	require.NoError(t, mgr.Close())
	assert.Equal(t, 0, mgr.Sessions())
	for _, a := range agents {
		assert.Equal(t, 1, a.closed)
	}

	err := mgr.OnGameStart("c", &protocol.GameStartRequest{Color: protocol.White})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, agents, 2)
}

func TestAgentPanicFailsOnlyItsCall(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	require.NoError(t, mgr.OnGameStart("broken", &protocol.GameStartRequest{Color: protocol.White}))
	require.NoError(t, mgr.OnGameStart("healthy", &protocol.GameStartRequest{Color: protocol.Black}))
	agents[0].panics = true

	req, err := protocol.NewChooseSenseRequest([]rbc.Square{chess.B2}, nil, 10)
	require.NoError(t, err)
	_, err = mgr.OnChooseSense("broken", req)
	assert.Error(t, err)

	reply, err := mgr.OnChooseSense("healthy", req)
	require.NoError(t, err)
	sq, ok, err := reply.Decode()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chess.B2, sq)

	// the broken peer's session is still usable
	_, err = mgr.OnChooseMove("broken", chooseMoveRequest(t))
	assert.NoError(t, err)
}

func TestOffBoardPositionsRejected(t *testing.T) {
	mgr := NewSessionMgr(Options{Factory: func() (agent.Agent, error) {
		return agent.NewEngineAgent(zap.NewNop(), &fixedSearcher{}), nil
	}})
	require.NoError(t, mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.White}))

	err := mgr.OnSenseResult("peer", &protocol.SenseResultRequest{Result: []protocol.SenseResult{
		{Square: protocol.Position{File: 1, Rank: 8}},
	}})
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))

	_, err = mgr.OnChooseSense("peer", &protocol.ChooseSenseRequest{
		PossibleSense: []protocol.Position{{File: 1, Rank: 1}, {File: -1, Rank: 3}},
	})
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))

	err = mgr.OnOpponentMove("peer", &protocol.OpponentMoveRequest{CapturedSquare: &protocol.Position{File: 0, Rank: 99}})
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))
	assert.Equal(t, 1, mgr.Sessions())
}

func TestGameRecordSaved(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	db, err := NewDB(fmt.Sprintf("redis://%s/0", mr.Addr()))
	require.NoError(t, err)
	defer db.Close()

	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, db)
	err = mgr.OnGameStart("peer", &protocol.GameStartRequest{Color: protocol.Black})
	require.NoError(t, err)
	agents[0].history = []string{"8/8/8/8/8/8/8/K6k b - - 0 1"}
	_, err = mgr.OnChooseMove("peer", chooseMoveRequest(t))
	require.NoError(t, err)
	err = mgr.OnGameEnd("peer", &protocol.GameEndRequest{WinnerColor: protocol.Black, WinReason: "king captured"})
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, DefaultRecordTTL, mr.TTL(keys[0]))

	rec, err := mgr.LoadRecord(context.Background(), keys[0][len("game:"):])
	require.NoError(t, err)
	assert.Equal(t, "peer", rec.Peer)
	assert.Equal(t, "Black", rec.Color)
	assert.True(t, rec.Won)
	assert.Equal(t, "king captured", rec.Reason)
	assert.Equal(t, 1, rec.Turns)
	assert.Equal(t, agents[0].history, rec.Boards)

	_, err = mgr.LoadRecord(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}

func TestRecordsDisabled(t *testing.T) {
	var agents []*recordingAgent
	mgr := newTestMgr(t, &agents, nil)
	_, err := mgr.LoadRecord(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrRecordNotFound))
}
