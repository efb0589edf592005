package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/session"
)

const registrationClosedMsg = "Hey! You can't register at this time! Sorry for the inconvenience!"

// registerPage shows the registration form
func (s *WebServer) registerPage(c *gin.Context) {
	if user := s.getSessionUser(c); user != nil {
		s.flashRedirect(c, session.FlashError, fmt.Sprintf("Hey! You're already registered and logged in %s!", user.Name), "/home")
		return
	}
	if !s.Auth.RegistrationEnabled(c.Request.Context()) {
		s.flashRedirect(c, session.FlashError, registrationClosedMsg, "/home")
		return
	}
	data := RegisterPageData{
		TemplateData: s.getBaseTemplateData(c, "Register"),
	}
	s.renderTemplate(c, "register.html", data)
}

// registerSubmit handles the registration form submission
func (s *WebServer) registerSubmit(c *gin.Context) {
	sess := s.getSession(c)
	req := auth.RegisterRequest{
		Username:   c.PostForm("username"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		RemoteAddr: c.ClientIP(),
	}

	user, err := s.Auth.Register(c.Request.Context(), sess.User, req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyAuthenticated):
			s.flashRedirect(c, session.FlashError, fmt.Sprintf("Hey! You're already registered and logged in %s!", sess.User.Name), "/home")
		case errors.Is(err, auth.ErrRegistrationDisabled):
			s.flashRedirect(c, session.FlashError, registrationClosedMsg, "/home")
		default:
			if msg, ok := validationMessage(err); ok {
				s.flashRedirect(c, session.FlashError, msg, "/register")
				return
			}
			s.renderError(c, http.StatusInternalServerError, "Registration failed. Please try again.", err.Error())
		}
		return
	}

	data := VerifyPageData{
		TemplateData: s.getBaseTemplateData(c, "Verify"),
		Username:     user.Name,
	}
	s.renderTemplate(c, "verify.html", data)
}
