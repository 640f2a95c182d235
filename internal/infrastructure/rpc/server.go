package rpc

import (
	"context"
	"fmt"
	"reminderengine/internal/application/dto"
	"reminderengine/internal/application/service"
	"reminderengine/internal/domain/constant"
	"reminderengine/internal/pkg/logger"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
)

// EmptyResult is the result of every bridge method.
type EmptyResult struct{}

// Server runs the bridge protocol on application connections.
type Server struct {
	methods  handler.Map
	commands service.BridgeCommands
	notifier *Notifier
	log      logger.Logger
}

// NewServer creates a Server whose connections push through notifier.
func NewServer(commands service.BridgeCommands, notifier *Notifier, log logger.Logger) *Server {
	s := &Server{commands: commands, notifier: notifier, log: log}
	s.methods = handler.Map{
		constant.MethodSetReminder:    s.setReminder,
		constant.MethodUpdateReminder: s.updateReminder,
		constant.MethodDeleteReminder: s.deleteReminder,
		constant.MethodInit:           s.init,
		constant.MethodReady:          s.ready,
	}
	return s
}

// Serve runs one connection until the peer goes away or ctx is done.
func (s *Server) Serve(ctx context.Context, ch channel.Channel) error {
	srv := jrpc2.NewServer(s.methods, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(ch)
	s.notifier.Register(srv)
	s.log.Info(fmt.Sprintf("Application connected (%d connections)", s.notifier.Count()))

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			srv.Stop()
		case <-stop:
		}
	}()

	err := srv.Wait()
	close(stop)
	s.notifier.Unregister(srv)
	s.log.Info(fmt.Sprintf("Application disconnected (%d connections)", s.notifier.Count()))
	return err
}

// decode unmarshals params into v. A request that does not decode is
// dropped: the caller answers with an empty result.
func (s *Server) decode(req *jrpc2.Request, v any) bool {
	if err := req.UnmarshalParams(v); err != nil {
		s.log.Warn(fmt.Sprintf("Dropping malformed %s request: %v", req.Method(), err))
		return false
	}
	return true
}

func (s *Server) setReminder(ctx context.Context, req *jrpc2.Request) (any, error) {
	var p dto.ReminderRequest
	if !s.decode(req, &p) {
		return EmptyResult{}, nil
	}
	return EmptyResult{}, s.commands.SetReminder(ctx, p)
}

func (s *Server) updateReminder(ctx context.Context, req *jrpc2.Request) (any, error) {
	var p dto.ReminderRequest
	if !s.decode(req, &p) {
		return EmptyResult{}, nil
	}
	return EmptyResult{}, s.commands.UpdateReminder(ctx, p)
}

func (s *Server) deleteReminder(ctx context.Context, req *jrpc2.Request) (any, error) {
	var p dto.DeleteReminderRequest
	if !s.decode(req, &p) {
		return EmptyResult{}, nil
	}
	return EmptyResult{}, s.commands.DeleteReminder(ctx, p)
}

func (s *Server) init(ctx context.Context, req *jrpc2.Request) (any, error) {
	var p dto.InitRequest
	if !s.decode(req, &p) {
		return EmptyResult{}, nil
	}
	return EmptyResult{}, s.commands.Init(ctx, p)
}

func (s *Server) ready(ctx context.Context, _ *jrpc2.Request) (any, error) {
	return EmptyResult{}, s.commands.Ready(ctx)
}
