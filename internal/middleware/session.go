package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/config"
	"finitefield.org/storefront-web/internal/observability"
)

const defaultSessionCookie = "storefront_session"

// ErrInvalidSessionConfig is returned when the session manager cannot be built.
var ErrInvalidSessionConfig = errors.New("session: invalid config")

// SessionData is the payload carried in the encrypted session cookie.
// ID doubles as the cart owner.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CSRFToken string    `json:"csrf,omitempty"`
	PanelOpen bool      `json:"panel,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	dirty bool
}

// SessionManager encodes sessions with securecookie.
type SessionManager struct {
	name   string
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager builds a manager from config. Missing keys are replaced with
// random ones, which only survive for the life of the process.
func NewSessionManager(cfg config.SessionConfig) (*SessionManager, error) {
	hashKey := []byte(cfg.HashKey)
	blockKey := []byte(cfg.BlockKey)
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidSessionConfig)
	}
	name := strings.TrimSpace(cfg.CookieName)
	if name == "" {
		name = defaultSessionCookie
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(maxAge.Seconds()))

	return &SessionManager{
		name:   name,
		codec:  codec,
		maxAge: maxAge,
		secure: cfg.Secure,
		now:    time.Now,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string { return m.name }

// Load decodes the request cookie. A missing or tampered cookie yields a fresh session.
func (m *SessionManager) Load(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return m.newSession(), false
	}
	var sd SessionData
	if err := m.codec.Decode(m.name, c.Value, &sd); err != nil {
		observability.FromContext(r.Context()).Debug("discarding session cookie", zap.Error(err))
		return m.newSession(), false
	}
	if sd.ID == "" {
		return m.newSession(), false
	}
	if sd.CSRFToken == "" {
		sd.CSRFToken = newCSRFToken()
		sd.dirty = true
	}
	return &sd, true
}

// Save writes the session cookie.
func (m *SessionManager) Save(w http.ResponseWriter, sd *SessionData) error {
	if sd == nil {
		return errors.New("session: nil session")
	}
	encoded, err := m.codec.Encode(m.name, sd)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.maxAge.Seconds()),
		Expires:  m.now().Add(m.maxAge),
	})
	sd.dirty = false
	return nil
}

func (m *SessionManager) newSession() *SessionData {
	now := m.now().UTC()
	return &SessionData{
		ID:        uuid.NewString(),
		CSRFToken: newCSRFToken(),
		CreatedAt: now,
		UpdatedAt: now,
		dirty:     true,
	}
}

// Session loads or initializes a session and stores it in request context.
// The cookie is written just before the first byte of the response when the session changed.
func (m *SessionManager) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := m.Load(r)
		persist := func(w http.ResponseWriter) {
			if !sd.dirty && fromCookie {
				return
			}
			if err := m.Save(w, sd); err != nil {
				observability.FromContext(r.Context()).Error("session save failed", zap.Error(err))
			}
			fromCookie = true
		}
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(persist)
		next.ServeHTTP(rw, r.WithContext(WithSession(r.Context(), sd)))
		if !rw.Written() {
			persist(w)
		}
	})
}

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, ctxKeySession, sd)
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// SetPanelOpen records the cart panel state, marking the session dirty on change.
func (s *SessionData) SetPanelOpen(open bool) {
	if s.PanelOpen == open {
		return
	}
	s.PanelOpen = open
	s.MarkDirty()
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
