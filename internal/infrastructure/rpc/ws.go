package rpc

import (
	"context"

	"github.com/coder/websocket"
	"github.com/creachadair/jrpc2/channel"
)

// wsChannel adapts a websocket.Conn to the jrpc2 Channel interface. Each
// WebSocket connection gets one wsChannel.
type wsChannel struct {
	conn *websocket.Conn
	ctx  context.Context
}

// NewWSChannel wraps conn; ctx bounds every read and write.
func NewWSChannel(ctx context.Context, conn *websocket.Conn) channel.Channel {
	return &wsChannel{conn: conn, ctx: ctx}
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
