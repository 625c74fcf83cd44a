package chat

import (
	"context"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/metrics"
)

const (
	StageError      = "error"
	ActionRetry     = "Retry"
	FallbackMessage = "Sorry, the assistant is not available right now. Please try again."
)

// API is the remote chat contract; *Client implements it.
type API interface {
	InitSession(ctx context.Context) (*Reply, error)
	SendMessage(ctx context.Context, sessionID string, message string) (*Reply, error)
}

var _ API = (*Client)(nil)

// Service never fails a call: upstream errors become the fallback reply.
type Service struct {
	API     API
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewService(api API, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{API: api, Logger: logger, Metrics: m}
}

func Fallback(sessionID string) *Reply {
	return &Reply{
		Response:  FallbackMessage,
		SessionID: sessionID,
		Stage:     StageError,
		Actions:   []string{ActionRetry},
	}
}

func (s *Service) InitSession(ctx context.Context) *Reply {
	reply, err := s.API.InitSession(ctx)
	if err != nil {
		s.Logger.Warn("chat init_session failed", zap.Error(err))
		s.Metrics.ChatFallback("init_session")
		return Fallback("")
	}
	return normalize(reply, "")
}

func (s *Service) SendMessage(ctx context.Context, sessionID string, message string) *Reply {
	reply, err := s.API.SendMessage(ctx, sessionID, message)
	if err != nil {
		s.Logger.Warn("chat send_message failed", zap.String("session_id", sessionID), zap.Error(err))
		s.Metrics.ChatFallback("send_message")
		return Fallback(sessionID)
	}
	return normalize(reply, sessionID)
}

func normalize(r *Reply, sessionID string) *Reply {
	if r.SessionID == "" {
		r.SessionID = sessionID
	}
	if r.Actions == nil {
		r.Actions = []string{}
	}
	return r
}
