package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/session"
)

// loginPage displays the login form
func (s *WebServer) loginPage(c *gin.Context) {
	// Check if user is already logged in
	if user := s.getSessionUser(c); user != nil {
		s.flashRedirect(c, session.FlashError, fmt.Sprintf("Hey! You're already logged in %s!", user.Name), "/home")
		return
	}
	data := LoginPageData{
		TemplateData: s.getBaseTemplateData(c, "Login"),
	}
	s.renderTemplate(c, "login.html", data)
}

// loginSubmit processes login form submission
func (s *WebServer) loginSubmit(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	sess := s.getSession(c)
	user, err := s.Auth.Login(c.Request.Context(), sess.User, username, password)
	switch {
	case err == nil:
		sess.User = user
		s.flashRedirect(c, session.FlashSuccess, fmt.Sprintf("Hey! Welcome back %s!", username), "/home")
	case errors.Is(err, auth.ErrAlreadyAuthenticated):
		s.flashRedirect(c, session.FlashError, fmt.Sprintf("Hey! You're already logged in %s!", sess.User.Name), "/home")
	case errors.Is(err, auth.ErrNotVerified):
		data := VerifyPageData{
			TemplateData: s.getBaseTemplateData(c, "Verify"),
			Username:     username,
		}
		s.renderTemplate(c, "verify.html", data)
	default:
		if msg, ok := loginMessage(err); ok {
			s.flashRedirect(c, session.FlashError, msg, "/login")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Login failed. Please try again.", err.Error())
	}
}

// logout handles user logout
func (s *WebServer) logout(c *gin.Context) {
	sess := s.getSession(c)
	if err := s.Auth.Logout(c.Request.Context(), sess.User); err != nil {
		s.flashRedirect(c, session.FlashError, "You can't logout if you aren't logged in!", "/login")
		return
	}
	sess.User = nil
	s.flashRedirect(c, session.FlashSuccess, "Successfully logged out!", "/login")
}
