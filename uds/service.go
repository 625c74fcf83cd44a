package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"os"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/svc"
)

// Command is one admin verb. Fn writes its reply to w; a returned error is
// reported to the client as "error: ...".
type Command struct {
	Desc  string
	Usage string
	Fn    func(ctx context.Context, args []string, w io.Writer) error
}

// Service is a line-protocol admin socket. One command per connection:
// unknown commands and `help` keep the connection open, any other command closes it when done.
type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	mu         sync.Mutex         // guards state
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	Commands   map[string]Command
	Logger     *zap.Logger
	listener   net.Listener
}

var _ svc.Service = (*Service)(nil)

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, commands map[string]Command, logger *zap.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		Commands:   commands,
		Logger:     logger.Named("uds"),
	}
}

// Start the unix socket service in the background.
// Bootstrapping errors are returned immediately.
// Runtime errors are pushed into Done().
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	// clean up old socket if any
	_ = os.Remove(s.SocketPath)
	listener, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen(%q) failed: %w", s.SocketPath, err)
	}
	s.listener = listener
	// tighten permissions immediately after binding
	if err = os.Chmod(s.SocketPath, 0600); err != nil {
		_ = s.listener.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod(%q) failed: %w", s.SocketPath, err)
	}
	s.state = svc.StateRUNNING
	go s.run()
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.state = svc.StateSTOPPED
	s.Logger.Info("service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

// run - internal run loop
func (s *Service) run() {
	// goroutine to clean up when context is done
	go func() {
		<-s.Ctx.Done()
		s.Logger.Info("stopping")
		if err := s.listener.Close(); err != nil {
			s.Logger.Error("cannot close listener", zap.Error(err))
		}
		// To avoid TOCTOU race, just try removing before checking if it exists.
		if err := os.Remove(s.SocketPath); err != nil && !os.IsNotExist(err) {
			s.Logger.Error("cannot remove socket file", zap.Error(err))
		}
	}()

	// --- Serving loop ---
	s.Logger.Info("listening", zap.String("socket", s.SocketPath))
	var conns sync.WaitGroup
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				conns.Wait()
				s.Logger.Info("socket closed")
				s.done <- nil // also a clean shutdown
				return
			}
			// For transient errors, don't kill the loop
			s.Logger.Error("accept failed", zap.Error(err))
			continue
		}
		s.Logger.Debug("new connection")
		conns.Add(1)
		go func() {
			defer conns.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Service) writeHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintf(w, "%-36s %s\n", "help", "list commands")
	_, _ = fmt.Fprintf(w, "%-36s %s\n", "quit", "close the connection")
	for _, cmdKey := range slices.Sorted(maps.Keys(s.Commands)) {
		cmd := s.Commands[cmdKey]
		usage := cmdKey
		if cmd.Usage != "" {
			usage = cmd.Usage
		}
		_, _ = fmt.Fprintf(w, "%-36s %s\n", usage, cmd.Desc)
	}
	_, _ = fmt.Fprintln(w, "")
}

// maxLineBytes caps a single request line.
const maxLineBytes = 64 << 10

func (s *Service) handleConn(c net.Conn) {
	ctx, cancel := context.WithCancel(s.Ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, 1024), maxLineBytes)
	for sc.Scan() {
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		name := args[0]
		switch name {
		case "quit":
			return
		case "help":
			s.writeHelp(c)
			continue
		}
		cmd, ok := s.Commands[name]
		if !ok {
			_, _ = fmt.Fprintf(c, "unknown command: %s\n", name)
			continue
		}
		s.Logger.Info("requested command", zap.Strings("args", args))
		if err := cmd.Fn(ctx, args[1:], c); err != nil {
			_, _ = fmt.Fprintf(c, "error: %v\n", err)
			s.Logger.Warn("command failed", zap.String("command", name), zap.Error(err))
		}
		return
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.Logger.Error("read error", zap.Error(err))
		return
	}
	s.Logger.Debug("client disconnected")
}
