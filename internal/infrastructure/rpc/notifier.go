package rpc

import (
	"context"
	"errors"
	"fmt"
	"reminderengine/internal/pkg/logger"
	"sync"

	"github.com/creachadair/jrpc2"
)

// ErrNoConnection is returned when a callback has nowhere to go.
var ErrNoConnection = errors.New("no application connected")

// Notifier maintains the set of connected jrpc2 servers and pushes
// callbacks to all of them.
type Notifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	onEmpty func()
	log     logger.Logger
}

// NewNotifier creates a Notifier. onEmpty, if set, runs whenever the last
// connection goes away.
func NewNotifier(onEmpty func(), log logger.Logger) *Notifier {
	return &Notifier{
		servers: make(map[*jrpc2.Server]struct{}),
		onEmpty: onEmpty,
		log:     log,
	}
}

// SetOnEmpty replaces the hook run when the last connection goes away.
func (n *Notifier) SetOnEmpty(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onEmpty = fn
}

// Register adds a server to the broadcast set.
func (n *Notifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *Notifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	_, had := n.servers[srv]
	delete(n.servers, srv)
	empty := had && len(n.servers) == 0
	onEmpty := n.onEmpty
	n.mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Deliver pushes a notification to every connected application. It fails
// only if no connection received it.
func (n *Notifier) Deliver(ctx context.Context, method string, params any) error {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	if len(servers) == 0 {
		return ErrNoConnection
	}

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			n.log.Warn(fmt.Sprintf("RPC push of %s failed: %v", method, err))
			failed = append(failed, srv)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
	if len(failed) == len(servers) {
		return fmt.Errorf("%w: push of %s failed on every connection", ErrNoConnection, method)
	}
	return nil
}

// Count returns the number of registered servers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}
