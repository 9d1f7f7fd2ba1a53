package rbcserver

import (
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/protocol"
)

// RemoteAgent is the RPC receiver of one connection. Its methods are served
// as RemoteAgent.<Method>. Failures travel in the reply's Status, so every
// method returns nil.
type RemoteAgent struct {
	mgr  *SessionMgr
	peer string
}

func (ra *RemoteAgent) report(method string, status *protocol.Status, err error) error {
	if err != nil {
		ra.mgr.logger.Warn("call failed", zap.String("peer", ra.peer), zap.String("method", method), zap.Error(err))
		status.SetErr(err)
	}
	return nil
}

// RemoteAgent.HandleGameStart is an RPC function that starts the peer's game
func (ra *RemoteAgent) HandleGameStart(req *protocol.GameStartRequest, ack *protocol.Ack) error {
	return ra.report(protocol.MethodGameStart, &ack.Status, ra.mgr.OnGameStart(ra.peer, req))
}

func (ra *RemoteAgent) HandleOpponentMove(req *protocol.OpponentMoveRequest, ack *protocol.Ack) error {
	return ra.report(protocol.MethodOpponentMove, &ack.Status, ra.mgr.OnOpponentMove(ra.peer, req))
}

// RemoteAgent.ChooseSense is an RPC function that returns the square to sense
func (ra *RemoteAgent) ChooseSense(req *protocol.ChooseSenseRequest, reply *protocol.ChooseSenseReply) error {
	res, err := ra.mgr.OnChooseSense(ra.peer, req)
	if err == nil {
		*reply = *res
	}
	return ra.report(protocol.MethodChooseSense, &reply.Status, err)
}

func (ra *RemoteAgent) HandleSenseResult(req *protocol.SenseResultRequest, ack *protocol.Ack) error {
	return ra.report(protocol.MethodSenseResult, &ack.Status, ra.mgr.OnSenseResult(ra.peer, req))
}

// RemoteAgent.ChooseMove is an RPC function that returns the move to play
func (ra *RemoteAgent) ChooseMove(req *protocol.ChooseMoveRequest, reply *protocol.ChooseMoveReply) error {
	res, err := ra.mgr.OnChooseMove(ra.peer, req)
	if err == nil {
		*reply = *res
	}
	return ra.report(protocol.MethodChooseMove, &reply.Status, err)
}

func (ra *RemoteAgent) HandleMoveResult(req *protocol.MoveResultRequest, ack *protocol.Ack) error {
	return ra.report(protocol.MethodMoveResult, &ack.Status, ra.mgr.OnMoveResult(ra.peer, req))
}

// RemoteAgent.HandleGameEnd is an RPC function that ends the peer's game and
// releases its agent
func (ra *RemoteAgent) HandleGameEnd(req *protocol.GameEndRequest, ack *protocol.Ack) error {
	return ra.report(protocol.MethodGameEnd, &ack.Status, ra.mgr.OnGameEnd(ra.peer, req))
}
