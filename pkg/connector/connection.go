package connector

import (
	"context"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/razzie/jsonrpc"
	"golang.org/x/net/websocket"
)

// Transport carries one remote call at a time. The reply must not be read
// after Call returned an error.
type Transport interface {
	Call(ctx context.Context, method string, args, reply interface{}) error
	Close() error
}

type Connection struct {
	ws     io.Closer
	client *jsonrpc.JsonRPC
}

// NewConnection dials the agent server. serverAddr is either a host:port
// pair or an http(s)/ws(s) URL.
func NewConnection(serverAddr string, dialTimeout time.Duration) (*Connection, error) {
	wsURL := websocketURL(serverAddr)
	config, err := websocket.NewConfig(wsURL, wsURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server address")
	}
	config.Dialer = &net.Dialer{Timeout: dialTimeout}
	ws, err := websocket.DialConfig(config)
	if err != nil {
		return nil, err
	}
	conn := &Connection{
		ws:     ws,
		client: jsonrpc.NewJsonRpc(ws),
	}
	go conn.client.Serve()
	return conn, nil
}

func (conn *Connection) Call(ctx context.Context, method string, args, reply interface{}) error {
	done := make(chan error, 1)
	go func() {
		done <- conn.client.Call(method, args, reply)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (conn *Connection) Close() error {
	return conn.ws.Close()
}

func websocketURL(serverAddr string) string {
	if !strings.Contains(serverAddr, "://") {
		return "ws://" + serverAddr + "/ws/"
	}
	u, err := url.Parse(serverAddr)
	if err != nil {
		return serverAddr
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws/"
	}
	return u.String()
}
