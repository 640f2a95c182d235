package handler

import (
	"context"
	"reminderengine/internal/infrastructure/rpc"
	"reminderengine/internal/pkg/logger"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// BridgeHandler upgrades application connections to the bridge protocol.
type BridgeHandler struct {
	server *rpc.Server
	// Connections end when base is done, even though hijacked connections
	// outlive the HTTP server's shutdown.
	base context.Context
	log  logger.Logger
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(base context.Context, server *rpc.Server, log logger.Logger) *BridgeHandler {
	return &BridgeHandler{server: server, base: base, log: log}
}

// Connect is GET /bridge.
func (h *BridgeHandler) Connect(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed: " + err.Error())
		return nil
	}
	conn.SetReadLimit(1 << 20)

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()
	stop := context.AfterFunc(c.Request().Context(), cancel)
	defer stop()

	if err := h.server.Serve(ctx, rpc.NewWSChannel(ctx, conn)); err != nil {
		h.log.Debug("Bridge connection ended: " + err.Error())
	}
	return nil
}
