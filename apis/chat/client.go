package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var ErrUpstream = errors.New("chat: upstream error")

// Reply is the chat API answer to both initSession and sendMessage.
type Reply struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	Stage     string   `json:"stage"`
	Actions   []string `json:"actions"`
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type Client struct {
	*http.Client // [Embedded]
	Conf         *Conf
	Logger       *zap.Logger
}

func NewClient(conf *Conf, logger *zap.Logger) *Client {
	conf.Prepare()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Client: &http.Client{Timeout: time.Duration(conf.TimeoutMs) * time.Millisecond},
		Conf:   conf,
		Logger: logger,
	}
}

func (c *Client) InitSession(ctx context.Context) (*Reply, error) {
	return c.post(ctx, c.Conf.InitEndpoint, struct{}{})
}

func (c *Client) SendMessage(ctx context.Context, sessionID string, message string) (*Reply, error) {
	return c.post(ctx, c.Conf.MessageEndpoint, messageRequest{SessionID: sessionID, Message: message})
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (*Reply, error) {
	upstrReqBodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	upstrReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Conf.Host+endpoint, bytes.NewReader(upstrReqBodyBytes))
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("Client-Id", c.Conf.ClientID)
	if c.Conf.APIKey != "" {
		upstrReq.Header.Set("Authorization", "Bearer "+c.Conf.APIKey)
	}
	upstrReq.Header.Set("Content-Type", "application/json")
	upstrReq.Header.Set("Accept", "application/json")

	upstrRes, err := c.Do(upstrReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() {
		if closeErr := upstrRes.Body.Close(); closeErr != nil {
			c.Logger.Warn("chat response body close", zap.Error(closeErr))
		}
	}()
	if upstrRes.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(upstrRes.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP status %d", ErrUpstream, upstrRes.StatusCode)
	}
	var reply Reply
	if err = json.NewDecoder(io.LimitReader(upstrRes.Body, 1<<20)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrUpstream, err)
	}
	return &reply, nil
}
