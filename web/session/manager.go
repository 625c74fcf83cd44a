package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/db/kvdb"
	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/sec"
)

const (
	CookieName         = "__Host-wizard"
	InsecureCookieName = "wizard"

	createdField  = "created_at"
	sessionIDSize = 24 // random bytes
)

var ErrSessionNotFound = errors.New("session: wizard session not found")

// Manager persists wizard sessions as KV hashes keyed by an opaque id.
// The id reaches the browser only sealed inside the session cookie.
type Manager struct {
	Conf    Conf
	AppName string // key prefix
	KV      kvdb.Client
	Logger  *zap.Logger
	Clock   func() time.Time
}

func NewManager(conf Conf, appName string, kv kvdb.Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{Conf: conf, AppName: appName, KV: kv, Logger: logger}
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Manager) keyPrefix() string {
	return m.AppName + "_wizard:"
}

func (m *Manager) SessionIDToKVDBKey(sessionID string) string {
	return m.keyPrefix() + sessionID
}

// Start stores a new session and returns its id.
func (m *Manager) Start(ctx context.Context, s *forms.Session) (string, error) {
	id, err := sec.GenerateOpaqueToken(sessionIDSize)
	if err != nil {
		return "", err
	}
	fields := s.ToFields()
	fields[createdField] = strconv.FormatInt(m.now().Unix(), 10)
	key := m.SessionIDToKVDBKey(id)
	if err = m.KV.PutHash(ctx, key, fields, m.Conf.Sliding()); err != nil {
		return "", fmt.Errorf("session start: %w", err)
	}
	m.Logger.Debug("wizard session started", zap.String("doc_type", s.DocType))
	return id, nil
}

// Load returns the session and slides its expiry. Sessions past the hard cap are deleted.
func (m *Manager) Load(ctx context.Context, sessionID string) (*forms.Session, error) {
	key := m.SessionIDToKVDBKey(sessionID)
	fields, err := m.KV.GetHash(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("session load: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}
	created, err := strconv.ParseInt(fields[createdField], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", forms.ErrCorruptSession, createdField)
	}
	remaining := m.Conf.Hardcap() - m.now().Sub(time.Unix(created, 0))
	if remaining <= 0 {
		_, _ = m.KV.Delete(ctx, key)
		return nil, ErrSessionNotFound
	}
	s, err := forms.SessionFromFields(fields)
	if err != nil {
		return nil, err
	}
	if _, err = m.KV.Expire(ctx, key, min(m.Conf.Sliding(), remaining)); err != nil {
		return nil, fmt.Errorf("session load: %w", err)
	}
	return s, nil
}

// Save overwrites the stored session. The session must already exist.
func (m *Manager) Save(ctx context.Context, sessionID string, s *forms.Session) error {
	key := m.SessionIDToKVDBKey(sessionID)
	found, err := m.KV.UpdateHash(ctx, key, s.ToFields())
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	if !found {
		return ErrSessionNotFound
	}
	return nil
}

func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if _, err := m.KV.Delete(ctx, m.SessionIDToKVDBKey(sessionID)); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Count scans the live wizard sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return kvdb.CountKeys(ctx, m.KV, m.keyPrefix()+"*")
}

func (m *Manager) CookieName() string {
	if m.Conf.InsecureCookie {
		return InsecureCookieName
	}
	return CookieName
}

// SessionIDFromRequest unseals the session id from the request cookie.
func (m *Manager) SessionIDFromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(m.CookieName())
	if err != nil {
		return "", ErrSessionNotFound
	}
	id, err := m.Conf.Cipher.DecodeDecrypt(c.Value, []byte(m.CookieName()))
	if err != nil {
		return "", ErrSessionNotFound
	}
	return string(id), nil
}

// FromRequest resolves the cookie to a stored session.
func (m *Manager) FromRequest(r *http.Request) (string, *forms.Session, error) {
	id, err := m.SessionIDFromRequest(r)
	if err != nil {
		return "", nil, err
	}
	s, err := m.Load(r.Context(), id)
	if err != nil {
		return "", nil, err
	}
	return id, s, nil
}

func (m *Manager) SetCookie(w http.ResponseWriter, sessionID string) error {
	sealed, err := m.Conf.Cipher.EncryptEncode([]byte(sessionID), []byte(m.CookieName()))
	if err != nil {
		return fmt.Errorf("failed to encrypt wizard session id: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:  m.CookieName(),
		Value: sealed,
		Path:  "/", // Subpaths will get this cookie.
		// Domain: // Cannot be set with `__Host-`
		HttpOnly: true, // JS cannot read it
		Secure:   !m.Conf.InsecureCookie,
		MaxAge:   m.Conf.ExpireHardcap,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) RemoveCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.CookieName(),
		Path:     "/",
		MaxAge:   -1, // Delete
		HttpOnly: true,
		Secure:   !m.Conf.InsecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
