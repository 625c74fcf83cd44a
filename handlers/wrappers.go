package handlers

import (
	"bufio"
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/feed"
	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
	"github.com/zeptools/legalgram/routing"
	"github.com/zeptools/legalgram/sec"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps websocket upgrades working through the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	if s.status == 0 {
		s.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// accessLog logs every request and feeds the request metrics, labelled by route pattern.
func (a *App) accessLog() routing.HandlerWrapper {
	logger := a.logger().Named("http")
	return routing.HandlerWrapperFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			a.Metrics.ObserveRequest(route, rec.status, elapsed)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("elapsed", elapsed),
				zap.String("ip", requests.GetClientIP(r)))
		})
	})
}

// throttled rejects requests over the group's rate with 429, keyed by client IP.
func (a *App) throttled(group string) routing.HandlerWrapper {
	return routing.HandlerWrapperFunc(func(next http.Handler) http.Handler {
		if a.Throttle == nil {
			return next
		}
		if _, ok := a.Throttle.GetBucketGroup(group); !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, wait := a.Throttle.Take(group, requests.GetClientIP(r), time.Now()); !ok {
				a.Metrics.Throttled(group)
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
				responses.WriteSimpleErrorJSON(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

type authorCtxKey struct{}

func withAuthor(ctx context.Context, author feed.Author) context.Context {
	return context.WithValue(ctx, authorCtxKey{}, author)
}

func authorFromContext(ctx context.Context) (feed.Author, bool) {
	author, ok := ctx.Value(authorCtxKey{}).(feed.Author)
	return author, ok
}

// authenticated requires a valid RS256 bearer token.
func (a *App) authenticated() routing.HandlerWrapper {
	return routing.HandlerWrapperFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.Verifier == nil {
				responses.WriteSimpleErrorJSON(w, http.StatusServiceUnavailable, "authentication is not configured")
				return
			}
			token := sec.ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := a.Verifier.Verify(token)
			if err != nil {
				a.logger().Debug("bearer token rejected", zap.Error(err))
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			name := claims.Name
			if name == "" {
				name = claims.Subject
			}
			next.ServeHTTP(w, r.WithContext(withAuthor(r.Context(), feed.Author{ID: claims.Subject, Name: name})))
		})
	})
}
