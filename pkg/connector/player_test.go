package connector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razzie/rbcremote/pkg/protocol"
	"github.com/razzie/rbcremote/pkg/rbc"
)

// fakeTransport answers calls from canned JSON replies, like the real
// transport would decode them.
type fakeTransport struct {
	replies map[string]string
	err     error
	block   bool
	calls   []string
	closed  bool
}

func (f *fakeTransport) Call(ctx context.Context, method string, args, reply interface{}) error {
	f.calls = append(f.calls, method)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	raw, ok := f.replies[method]
	if !ok {
		raw = "{}"
	}
	return json.Unmarshal([]byte(raw), reply)
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

var (
	offeredSense = []rbc.Square{chess.B2, chess.C3}
	offeredMoves = []rbc.Move{rbc.NewMove(chess.A2, chess.A4)}
)

func TestChooseSenseFallsBackOnFailure(t *testing.T) {
	p := NewPlayer(&fakeTransport{err: errors.New("connection reset")}, Options{})
	for i := 0; i < 20; i++ {
		sq, err := p.ChooseSense(context.Background(), offeredSense, offeredMoves, 10)
		require.NoError(t, err)
		assert.Contains(t, offeredSense, sq)
	}
}

func TestChooseSenseFallsBackOnTimeout(t *testing.T) {
	p := NewPlayer(&fakeTransport{block: true}, Options{CallTimeout: 10 * time.Millisecond})
	sq, err := p.ChooseSense(context.Background(), offeredSense, offeredMoves, 10)
	require.NoError(t, err)
	assert.Contains(t, offeredSense, sq)
}

func TestChooseSenseFallsBackOnMissingLocation(t *testing.T) {
	p := NewPlayer(&fakeTransport{}, Options{})
	sq, err := p.ChooseSense(context.Background(), offeredSense, offeredMoves, 10)
	require.NoError(t, err)
	assert.Contains(t, offeredSense, sq)
}

func TestChooseSenseUsesRemoteChoice(t *testing.T) {
	tr := &fakeTransport{replies: map[string]string{
		protocol.MethodChooseSense: `{"sense_location":{"file":0,"rank":0}}`,
	}}
	p := NewPlayer(tr, Options{})
	sq, err := p.ChooseSense(context.Background(), []rbc.Square{chess.A1, chess.H8}, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, chess.A1, sq)
	assert.Equal(t, []string{protocol.MethodChooseSense}, tr.calls)
}

func TestChooseMove(t *testing.T) {
	tr := &fakeTransport{replies: map[string]string{
		protocol.MethodChooseMove: `{"move":{"from_square":{"file":4,"rank":6},"to_square":{"file":4,"rank":7},"has_promotion":true,"promotion":4}}`,
	}}
	p := NewPlayer(tr, Options{})
	m, err := p.ChooseMove(context.Background(), offeredMoves, 9.5)
	require.NoError(t, err)
	assert.Equal(t, rbc.Move{From: chess.E7, To: chess.E8, Promo: chess.Queen}, m)

	// an undecodable choice is treated like no choice
	tr.replies[protocol.MethodChooseMove] = `{"move":{"has_promotion":true,"promotion":42}}`
	m, err = p.ChooseMove(context.Background(), offeredMoves, 9.5)
	require.NoError(t, err)
	assert.Equal(t, offeredMoves[0], m)

	tr.replies[protocol.MethodChooseMove] = `{}`
	m, err = p.ChooseMove(context.Background(), offeredMoves, 9.5)
	require.NoError(t, err)
	assert.Equal(t, offeredMoves[0], m)
}

func TestNotificationFailuresAreReported(t *testing.T) {
	tr := &fakeTransport{err: errors.New("broken pipe")}
	p := NewPlayer(tr, Options{})
	ctx := context.Background()

	err := p.HandleGameStart(ctx, chess.White)
	assert.True(t, errors.Is(err, ErrTransport))
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, protocol.MethodGameStart, terr.Method)

	assert.True(t, errors.Is(p.HandleOpponentMove(ctx, nil), ErrTransport))
	assert.True(t, errors.Is(p.HandleSenseResult(ctx, nil), ErrTransport))
	assert.True(t, errors.Is(p.HandleMoveResult(ctx, offeredMoves[0], nil, "", nil), ErrTransport))
	assert.True(t, errors.Is(p.HandleGameEnd(ctx, chess.Black, "timeout"), ErrTransport))
}

func TestRemoteFailuresAreReported(t *testing.T) {
	tr := &fakeTransport{replies: map[string]string{
		protocol.MethodOpponentMove: `{"error":"peer p: unknown session","code":"unknown_session"}`,
		protocol.MethodChooseSense:  `{"error":"agent crashed","code":"internal"}`,
		protocol.MethodChooseMove:   `{"error":"peer p: unknown session","code":"unknown_session","move":{"from_square":{"file":4,"rank":6},"to_square":{"file":4,"rank":7}}}`,
	}}
	p := NewPlayer(tr, Options{CallTimeout: time.Hour})
	ctx := context.Background()

	start := time.Now()
	err := p.HandleOpponentMove(ctx, nil)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, protocol.ErrRemote))
	assert.True(t, errors.Is(err, protocol.ErrUnknownSession))
	assert.False(t, errors.Is(err, protocol.ErrDuplicateSession))
	assert.Contains(t, err.Error(), "unknown session")

	sq, err := p.ChooseSense(ctx, offeredSense, offeredMoves, 10)
	require.NoError(t, err)
	assert.Contains(t, offeredSense, sq)

	// a failed call's choice is never used
	m, err := p.ChooseMove(ctx, offeredMoves, 10)
	require.NoError(t, err)
	assert.Equal(t, offeredMoves[0], m)
	assert.Less(t, int64(time.Since(start)), int64(time.Second))
}

func TestInvalidDomainValueSkipsRemoteCall(t *testing.T) {
	tr := &fakeTransport{}
	p := NewPlayer(tr, Options{})

	err := p.HandleGameStart(context.Background(), chess.NoColor)
	assert.True(t, errors.Is(err, protocol.ErrInvalidDomainValue))
	assert.Empty(t, tr.calls)
}

func TestCloseReleasesTransport(t *testing.T) {
	tr := &fakeTransport{}
	require.NoError(t, NewPlayer(tr, Options{}).Close())
	assert.True(t, tr.closed)
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:50051/ws/", websocketURL("localhost:50051"))
	assert.Equal(t, "ws://example.com/ws/", websocketURL("http://example.com"))
	assert.Equal(t, "wss://example.com/ws/", websocketURL("https://example.com/"))
	assert.Equal(t, "ws://example.com/agent", websocketURL("ws://example.com/agent"))
}
