package web

import (
	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/session"
)

// homePage handles the main page
func (s *WebServer) homePage(c *gin.Context) {
	s.renderTemplate(c, "home.html", s.getBaseTemplateData(c, "Home"))
}

// settingsPage is only reachable when logged in
func (s *WebServer) settingsPage(c *gin.Context) {
	if s.getSessionUser(c) == nil {
		s.flashRedirect(c, session.FlashError, "You must be logged in to access user settings!", "/login")
		return
	}
	s.renderTemplate(c, "settings.html", s.getBaseTemplateData(c, "Settings"))
}
