package rbcserver

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/razzie/jsonrpc"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/semaphore"

	"github.com/razzie/rbcremote/pkg/agent"
	"github.com/razzie/rbcremote/pkg/protocol"
	"github.com/razzie/rbcremote/pkg/rbc"
)

const (
	DefaultWorkers   = 5
	DefaultRecordTTL = 24 * time.Hour

	recordTimeout = 5 * time.Second
)

var (
	ErrUnknownSession   = protocol.ErrUnknownSession
	ErrDuplicateSession = protocol.ErrDuplicateSession
)

type Options struct {
	Factory   agent.Factory
	Workers   int
	Logger    *zap.Logger
	Records   RecordStore
	RecordTTL time.Duration
}

// SessionMgr owns one agent per peer between GameStart and GameEnd and
// dispatches every call of a peer to its agent. Calls of one peer are
// serialised, calls of different peers run in parallel up to the worker
// limit.
type SessionMgr struct {
	factory   agent.Factory
	sessions  sync.Map
	conns     sync.Map
	workers   *semaphore.Weighted
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *zap.Logger
	records   RecordStore
	recordTTL time.Duration
}

func NewSessionMgr(opts Options) *SessionMgr {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.RecordTTL == 0 {
		opts.RecordTTL = DefaultRecordTTL
	}
	if opts.Factory == nil {
		opts.Factory = func() (agent.Agent, error) {
			return agent.NewRandomAgent(opts.Logger, nil), nil
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionMgr{
		factory:   opts.Factory,
		workers:   semaphore.NewWeighted(int64(opts.Workers)),
		ctx:       ctx,
		cancel:    cancel,
		logger:    opts.Logger,
		records:   opts.Records,
		recordTTL: opts.RecordTTL,
	}
}

// ServeRPC upgrades the request to a websocket and serves the remote agent
// protocol on it. Every connection is a distinct peer.
func (mgr *SessionMgr) ServeRPC(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(mgr.serve).ServeHTTP(w, r)
}

func (mgr *SessionMgr) serve(ws *websocket.Conn) {
	peer := uuid.NewString()
	logger := mgr.logger.With(zap.String("peer", peer))

	client := jsonrpc.NewJsonRpc(ws)
	client.Register(&RemoteAgent{mgr: mgr, peer: peer}, "")

	mgr.conns.Store(peer, ws)
	logger.Info("peer connected", zap.String("remote", ws.Request().RemoteAddr))

	client.Serve()

	mgr.conns.Delete(peer)
	mgr.dropPeer(peer)
	logger.Info("peer disconnected")
}

// Close rejects further calls, disconnects every peer and releases the
// agents of unfinished games.
func (mgr *SessionMgr) Close() error {
	mgr.cancel()
	mgr.conns.Range(func(peer, ws any) bool {
		ws.(*websocket.Conn).Close()
		return true
	})
	mgr.sessions.Range(func(peer, _ any) bool {
		mgr.dropPeer(peer.(string))
		return true
	})
	return nil
}

// Sessions returns the number of live sessions.
func (mgr *SessionMgr) Sessions() int {
	count := 0
	mgr.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (mgr *SessionMgr) acquire() (func(), error) {
	if err := mgr.workers.Acquire(mgr.ctx, 1); err != nil {
		return nil, errors.Wrap(err, "session manager closed")
	}
	return func() { mgr.workers.Release(1) }, nil
}

func (mgr *SessionMgr) dispatch(peer string, fn func(sess *session) error) (err error) {
	release, err := mgr.acquire()
	if err != nil {
		return err
	}
	defer release()

	v, ok := mgr.sessions.Load(peer)
	if !ok {
		return errors.Wrapf(ErrUnknownSession, "peer %s", peer)
	}
	sess := v.(*session)
	sess.mtx.Lock()
	defer sess.mtx.Unlock()

	// a panicking agent fails only its own call
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("agent panicked", zap.String("peer", peer), zap.Any("panic", r))
			err = errors.Errorf("agent panic: %v", r)
		}
	}()
	return fn(sess)
}

func (mgr *SessionMgr) OnGameStart(peer string, req *protocol.GameStartRequest) error {
	release, err := mgr.acquire()
	if err != nil {
		return err
	}
	defer release()

	color, err := protocol.ColorFromWire(req.Color)
	if err != nil {
		return err
	}
	if _, ok := mgr.sessions.Load(peer); ok {
		return errors.Wrapf(ErrDuplicateSession, "peer %s", peer)
	}
	a, err := mgr.factory()
	if err != nil {
		return errors.Wrap(err, "failed to create agent")
	}
	sess := newSession(peer, a, color)
	sess.mtx.Lock()
	defer sess.mtx.Unlock()
	if _, loaded := mgr.sessions.LoadOrStore(peer, sess); loaded {
		mgr.closeAgent(peer, a)
		return errors.Wrapf(ErrDuplicateSession, "peer %s", peer)
	}
	mgr.logger.Info("new session", zap.String("peer", peer), zap.String("color", color.Name()))
	if err := a.HandleGameStart(color); err != nil {
		mgr.sessions.Delete(peer)
		mgr.closeAgent(peer, a)
		return err
	}
	return nil
}

func (mgr *SessionMgr) OnOpponentMove(peer string, req *protocol.OpponentMoveRequest) error {
	return mgr.dispatch(peer, func(sess *session) error {
		captured, err := req.Decode()
		if err != nil {
			return err
		}
		return sess.agent.HandleOpponentMove(captured)
	})
}

func (mgr *SessionMgr) OnChooseSense(peer string, req *protocol.ChooseSenseRequest) (*protocol.ChooseSenseReply, error) {
	var reply *protocol.ChooseSenseReply
	err := mgr.dispatch(peer, func(sess *session) error {
		senseReq, err := req.Decode()
		if err != nil {
			return err
		}
		sq, err := sess.agent.ChooseSense(senseReq)
		if err != nil {
			return err
		}
		reply = protocol.NewChooseSenseReply(sq)
		return nil
	})
	return reply, err
}

func (mgr *SessionMgr) OnSenseResult(peer string, req *protocol.SenseResultRequest) error {
	return mgr.dispatch(peer, func(sess *session) error {
		results, err := req.Decode()
		if err != nil {
			return err
		}
		sortSenseResults(results)
		return sess.agent.HandleSenseResult(results)
	})
}

func (mgr *SessionMgr) OnChooseMove(peer string, req *protocol.ChooseMoveRequest) (*protocol.ChooseMoveReply, error) {
	var reply *protocol.ChooseMoveReply
	err := mgr.dispatch(peer, func(sess *session) error {
		moveReq, err := req.Decode()
		if err != nil {
			return err
		}
		m, err := sess.agent.ChooseMove(moveReq)
		if err != nil {
			return err
		}
		sess.turns++
		reply, err = protocol.NewChooseMoveReply(m)
		return err
	})
	return reply, err
}

func (mgr *SessionMgr) OnMoveResult(peer string, req *protocol.MoveResultRequest) error {
	return mgr.dispatch(peer, func(sess *session) error {
		res, err := req.Decode()
		if err != nil {
			return err
		}
		return sess.agent.HandleMoveResult(res)
	})
}

// OnGameEnd delegates to the peer's agent and removes the session, also when
// the agent fails. A request with an invalid winner leaves the session alone.
func (mgr *SessionMgr) OnGameEnd(peer string, req *protocol.GameEndRequest) error {
	release, err := mgr.acquire()
	if err != nil {
		return err
	}
	defer release()

	winner, err := protocol.ColorFromWire(req.WinnerColor)
	if err != nil {
		return err
	}
	v, ok := mgr.sessions.LoadAndDelete(peer)
	if !ok {
		return errors.Wrapf(ErrUnknownSession, "peer %s", peer)
	}
	sess := v.(*session)
	sess.mtx.Lock()
	defer sess.mtx.Unlock()
	defer mgr.closeAgent(peer, sess.agent)

	mgr.logger.Info("session ended",
		zap.String("peer", peer),
		zap.Bool("won", winner == sess.color),
		zap.String("reason", req.WinReason),
		zap.Int("turns", sess.turns))
	if err := sess.agent.HandleGameEnd(winner, req.WinReason); err != nil {
		return err
	}
	mgr.saveRecord(sess.record(winner, req.WinReason))
	return nil
}

// dropPeer forgets the session of a peer that left without ending its game.
func (mgr *SessionMgr) dropPeer(peer string) {
	v, ok := mgr.sessions.LoadAndDelete(peer)
	if !ok {
		return
	}
	sess := v.(*session)
	sess.mtx.Lock()
	defer sess.mtx.Unlock()
	mgr.logger.Warn("peer left mid-game, session dropped", zap.String("peer", peer))
	mgr.closeAgent(peer, sess.agent)
}

func (mgr *SessionMgr) closeAgent(peer string, a agent.Agent) {
	if err := a.Close(); err != nil {
		mgr.logger.Warn("failed to close agent", zap.String("peer", peer), zap.Error(err))
	}
}

func (mgr *SessionMgr) saveRecord(rec *GameRecord) {
	if mgr.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := mgr.records.SaveRecord(ctx, rec, mgr.recordTTL); err != nil {
		mgr.logger.Error("failed to save game record", zap.String("game", rec.ID), zap.Error(err))
		return
	}
	mgr.logger.Debug("game record saved", zap.String("game", rec.ID))
}

// LoadRecord returns a finished game's record.
func (mgr *SessionMgr) LoadRecord(ctx context.Context, id string) (*GameRecord, error) {
	if mgr.records == nil {
		return nil, ErrRecordNotFound
	}
	return mgr.records.LoadRecord(ctx, id)
}

// sortSenseResults orders results by rank, then file.
func sortSenseResults(results []rbc.SenseResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Square, results[j].Square
		if a.Rank() != b.Rank() {
			return a.Rank() < b.Rank()
		}
		return a.File() < b.File()
	})
}
