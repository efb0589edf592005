package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/config"
)

//go:embed templates/*.html
var embeddedTemplatesFS embed.FS

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"unix": func(ts int64) string {
		if ts <= 0 {
			return "-"
		}
		return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
	},
	"pct": func(acc float64) string {
		return fmt.Sprintf("%.2f%%", acc)
	},
	"hours": func(secs int) string {
		return fmt.Sprintf("%dh", secs/3600)
	},
}

// loadTemplates parses every page template together with base.html
func loadTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(embeddedTemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimPrefix(page, "templates/")
		if name == "base.html" {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFS(embeddedTemplatesFS, "templates/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

// getBaseTemplateData creates a TemplateData struct with common information
// including user auth. It pops the pending flash.
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	data := TemplateData{
		Title:               template.HTML(template.HTMLEscapeString(title)),
		CurrentTime:         time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:          config.AppVersion,
		RegistrationEnabled: s.Auth.RegistrationEnabled(c.Request.Context()),
	}
	sess := s.getSession(c)
	data.Flash = sess.PopFlash()
	if sess.Authenticated() {
		data.User = sess.User
		data.IsStaff = sess.User.IsStaff
	}
	return data
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := ErrorPageData{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   statusCode,
	}
	log.Printf("[ERROR]: web: Error %d: %s - %s", statusCode, message, errstring)
	s.renderStatus(c, statusCode, "error.html", errorData)
}

// renderNotFound renders the 404 page
func (s *WebServer) renderNotFound(c *gin.Context) {
	data := ErrorPageData{
		TemplateData: s.getBaseTemplateData(c, "Not Found"),
		Error:        "The page you requested does not exist.",
		StatusCode:   http.StatusNotFound,
	}
	s.renderStatus(c, http.StatusNotFound, "404.html", data)
}

// renderTemplate renders a template with base template data
func (s *WebServer) renderTemplate(c *gin.Context, templateName string, data interface{}) {
	s.renderStatus(c, http.StatusOK, templateName, data)
}

// renderStatus executes templateName into a buffer, stores the session
// (the flash was popped by getBaseTemplateData) and writes the page
func (s *WebServer) renderStatus(c *gin.Context, statusCode int, templateName string, data interface{}) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		log.Printf("[ERROR]: web: template %s not loaded", templateName)
		c.String(http.StatusInternalServerError, "Template error")
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", templateName, err)
		if templateName == "error.html" {
			c.String(http.StatusInternalServerError, "Template error")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return
	}
	s.saveSession(c)
	c.Data(statusCode, "text/html; charset=utf-8", buf.Bytes())
}
