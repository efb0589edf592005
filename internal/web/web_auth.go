package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/models"
	"github.com/go-while/go-guweb/internal/session"
)

const sessionContextKey = "session"

// sessionMiddleware decodes the session cookie once per request
func (s *WebServer) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionContextKey, s.Sessions.Load(c.Request))
		c.Next()
	}
}

// getSession returns the request's session; never nil
func (s *WebServer) getSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	sess := s.Sessions.Load(c.Request)
	c.Set(sessionContextKey, sess)
	return sess
}

// getSessionUser returns the logged in user or nil
func (s *WebServer) getSessionUser(c *gin.Context) *models.SessionUser {
	return s.getSession(c).User
}

// saveSession writes the session cookie. Call it before the body is written.
func (s *WebServer) saveSession(c *gin.Context) {
	if err := s.Sessions.Save(c.Writer, c.Request, s.getSession(c)); err != nil {
		log.Printf("[WEB]: saving session failed: %v", err)
	}
}

// flashRedirect stores a one-shot message and redirects with 303
func (s *WebServer) flashRedirect(c *gin.Context, status, msg, location string) {
	s.getSession(c).SetFlash(status, msg)
	s.saveSession(c)
	c.Redirect(http.StatusSeeOther, location)
}

// validationMessages maps validator errors to what the user sees, per field
var validationMessages = map[string]map[error]string{
	auth.FieldUsername: {
		auth.ErrInvalidSyntax:      "Invalid username syntax.",
		auth.ErrAmbiguousSeparator: `Username may contain "_" or " ", but not both.`,
		auth.ErrDisallowed:         "Disallowed username; pick another.",
		auth.ErrTaken:              "Username already taken by another user.",
	},
	auth.FieldEmail: {
		auth.ErrInvalidSyntax: "Invalid email syntax.",
		auth.ErrTaken:         "Email already taken by another user.",
	},
	auth.FieldPassword: {
		auth.ErrTooShortOrLong: "Password must be 8-32 characters in length",
		auth.ErrTooSimple:      "Password must have more than 3 unique characters.",
		auth.ErrDenylisted:     "That password was deemed too simple.",
	},
}

// validationMessage returns the flash text for a validator error
func validationMessage(err error) (string, bool) {
	var verr *auth.ValidationError
	if !errors.As(err, &verr) {
		return "", false
	}
	msg, ok := validationMessages[verr.Field][verr.Err]
	return msg, ok
}

// loginMessages maps login failures to flash texts
var loginMessages = map[error]string{
	auth.ErrAccountNotFound: "Account does not exist.",
	auth.ErrBadPassword:     "Password is incorrect.",
	auth.ErrBanned:          "You are banned!",
}

func loginMessage(err error) (string, bool) {
	for kind, msg := range loginMessages {
		if errors.Is(err, kind) {
			return msg, true
		}
	}
	return "", false
}
