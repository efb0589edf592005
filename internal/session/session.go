// Package session keeps the per-client session in an HS256-signed cookie.
//
// A Session is either anonymous (User == nil) or authenticated with a
// snapshot of the account taken at login. It can also carry one flash
// message that is shown on the next rendered page and then dropped.
package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/go-while/go-guweb/internal/models"
)

const CookieName = "guweb_session"

// Flash statuses
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message for the next page render
type Flash struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

// Session is the decoded cookie payload
type Session struct {
	ID    string              `json:"-"`
	User  *models.SessionUser `json:"user,omitempty"`
	Flash *Flash              `json:"flash,omitempty"`
}

// Authenticated reports whether a user is logged in
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// SetFlash replaces the pending flash
func (s *Session) SetFlash(status, msg string) {
	s.Flash = &Flash{Status: status, Msg: msg}
}

// PopFlash returns the pending flash and clears it
func (s *Session) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}

func (s *Session) empty() bool {
	return s.User == nil && s.Flash == nil
}

// claims is the signed cookie body
type claims struct {
	jwt.RegisteredClaims
	User  *models.SessionUser `json:"user,omitempty"`
	Flash *Flash              `json:"flash,omitempty"`
}

// Manager encodes and decodes session cookies
type Manager struct {
	secret []byte
	ttl    time.Duration
	debug  bool
	now    func() time.Time
}

// NewManager signs cookies with secret; sessions expire ttl after they are written
func NewManager(secret string, ttl time.Duration, debug bool) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, debug: debug, now: time.Now}
}

// Encode signs s into a cookie value
func (m *Manager) Encode(s *Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		User:  s.User,
		Flash: s.Flash,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns its session
func (m *Manager) Decode(value string) (*Session, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(value, c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	return &Session{ID: c.ID, User: c.User, Flash: c.Flash}, nil
}

// Load returns the request's session. A missing, tampered or expired
// cookie yields a fresh anonymous session.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}
	s, err := m.Decode(cookie.Value)
	if err != nil {
		if m.debug {
			log.Printf("[SESSION]: dropping cookie: %v", err)
		}
		return &Session{}
	}
	return s
}

// Save writes s back to the client. An empty session deletes the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.empty() {
		if _, err := r.Cookie(CookieName); err == nil {
			http.SetCookie(w, m.cookie(r, "", -1))
		}
		return nil
	}
	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(r, value, int(m.ttl/time.Second)))
	return nil
}

func (m *Manager) cookie(r *http.Request, value string, maxAge int) *http.Cookie {
	// Detect HTTPS from the current request perspective only
	isHTTPS := r != nil && (r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"))
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
