package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/svc"
)

const DefaultShutdownTimeout = 10 * time.Second

type Service struct {
	Ctx             context.Context    // Service Context
	cancel          context.CancelFunc // Service Context CancelFunc
	mu              sync.Mutex         // guards state
	state           int                // internal service state
	done            chan error         // Shutdown Error Channel
	Server          *http.Server
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
	listener        net.Listener
}

var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler, logger *zap.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
		},
		ShutdownTimeout: DefaultShutdownTimeout,
		Logger:          logger.Named("web"),
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Start binds the listen address and serves in the background.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	listener, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.Server.Addr, err)
	}
	s.listener = listener
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.Server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateRUNNING {
		s.Logger.Error("cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
	s.Logger.Info("service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

func (s *Service) run() {
	serveErr := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("addr", s.listener.Addr().String()))
		err := s.Server.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()

	select {
	case err := <-serveErr:
		// serving failed on its own
		s.done <- err
		return
	case <-s.Ctx.Done():
	}

	// Server Shutdown to Stop Accepting New HTTP Requests Immediately
	// But with the context with timeout, requests already being processed get time to finish
	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	err := s.Server.Shutdown(ctx)
	if err != nil {
		s.Logger.Error("server shutdown failed", zap.Error(err))
	}
	if serr := <-serveErr; serr != nil && err == nil {
		err = serr
	}
	s.done <- err
}
