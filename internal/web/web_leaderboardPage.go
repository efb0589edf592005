package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/models"
)

// leaderboardSize is how many players a leaderboard page lists
const leaderboardSize = 50

func (s *WebServer) leaderboardDefaultPage(c *gin.Context) {
	s.renderLeaderboard(c, models.DefaultMode, models.DefaultSort, models.DefaultMods)
}

func (s *WebServer) leaderboardPage(c *gin.Context) {
	s.renderLeaderboard(c, c.Param("mode"), c.Param("sort"), c.Param("mods"))
}

// renderLeaderboard echoes mode/sort/mods and lists the top players when
// they form a valid combination
func (s *WebServer) renderLeaderboard(c *gin.Context, mode, sort, mods string) {
	var entries []*models.LeaderboardEntry
	if idx, ok := models.ModeIndex(mods, mode); ok && models.IsValidSort(sort) {
		var err error
		entries, err = s.DB.GetLeaderboard(c.Request.Context(), idx, sort, leaderboardSize)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, "Failed to load leaderboard", err.Error())
			return
		}
	}

	data := LeaderboardPageData{
		TemplateData: s.getBaseTemplateData(c, "Leaderboard"),
		Mode:         mode,
		Sort:         sort,
		Mods:         mods,
		Modes:        models.ValidModes,
		Sorts:        models.ValidSorts,
		ModsList:     models.ValidMods,
		Entries:      entries,
	}
	s.renderTemplate(c, "leaderboard.html", data)
}
