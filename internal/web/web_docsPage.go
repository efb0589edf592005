package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/docs"
)

// docsPage lists the markdown docs
func (s *WebServer) docsPage(c *gin.Context) {
	list, err := s.Docs.List()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Failed to list docs", err.Error())
		return
	}
	data := DocsPageData{
		TemplateData: s.getBaseTemplateData(c, "Documentation"),
	}
	for _, d := range list {
		data.Docs = append(data.Docs, DocLink{Name: d.Name, Title: d.Title})
	}
	s.renderTemplate(c, "docs.html", data)
}

// docPage renders docs/<doc>.md
func (s *WebServer) docPage(c *gin.Context) {
	doc, err := s.Docs.Render(c.Param("doc"))
	if errors.Is(err, docs.ErrNotFound) {
		s.renderNotFound(c)
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Failed to render doc", err.Error())
		return
	}
	data := DocPageData{
		TemplateData: s.getBaseTemplateData(c, doc.Title),
		Content:      doc.HTML,
	}
	s.renderTemplate(c, "doc.html", data)
}

func (s *WebServer) discordRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, s.Config.DiscordServer)
}
