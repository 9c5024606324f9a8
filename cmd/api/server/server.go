package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tcp-user-service/internal/adapter/tcp"
	"tcp-user-service/internal/config"
)

// Server runs the TCP listener and, when configured, the ops HTTP server.
type Server struct {
	Config     *config.Config
	Logger     *zap.Logger
	Dispatcher *tcp.Dispatcher
	Ops        *http.Server
}

// New creates a new server instance. opsHandler may be nil to run without
// the ops server.
func New(cfg *config.Config, l *zap.Logger, dispatcher *tcp.Dispatcher, opsHandler http.Handler) *Server {
	s := &Server{
		Config:     cfg,
		Logger:     l,
		Dispatcher: dispatcher,
	}
	if opsHandler != nil {
		s.Ops = SetupOpsServer(opsHandler, s.opsAddress(), l)
	}
	return s
}

// Start binds the TCP listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.Config.App.ListenAddress())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve runs the dispatcher on ln alongside the ops server. Either one
// failing stops the other.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	s.Logger.Info("TCP server running", zap.String("address", ln.Addr().String()))
	g.Go(func() error {
		return s.Dispatcher.Serve(gctx, ln)
	})

	if s.Ops != nil {
		g.Go(func() error {
			s.Logger.Info("ops server running", zap.String("address", s.Ops.Addr))
			if err := s.Ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			return s.shutdownOps()
		})
	}

	return g.Wait()
}

func (s *Server) shutdownOps() error {
	timeout := time.Duration(s.Config.App.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.Logger.Info("shutting down ops server...")
	if err := s.Ops.Shutdown(ctx); err != nil {
		return fmt.Errorf("ops shutdown: %w", err)
	}
	return nil
}

// opsAddress returns the ops server address
func (s *Server) opsAddress() string {
	return net.JoinHostPort(s.Config.App.ListenHost, s.Config.Ops.Port)
}
