package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-guweb/internal/models"
)

// profilePage shows a user's profile. :user is an id or a name.
func (s *WebServer) profilePage(c *gin.Context) {
	mods := c.DefaultQuery("mods", models.DefaultMods)
	if !models.IsValidMods(mods) {
		c.String(http.StatusBadRequest, "invalid mods! (vn, rx, ap)")
		return
	}
	mode := c.DefaultQuery("mode", models.DefaultMode)
	if !models.IsValidMode(mode) {
		c.String(http.StatusBadRequest, "invalid mode! (std, taiko, catch, mania)")
		return
	}

	ctx := c.Request.Context()
	param := c.Param("user")
	var (
		profile *models.User
		err     error
	)
	if id, perr := strconv.ParseInt(param, 10, 64); perr == nil {
		profile, err = s.DB.GetUserByID(ctx, id)
	} else {
		profile, err = s.DB.GetUserBySafeName(ctx, models.SafeName(param))
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Failed to load profile", err.Error())
		return
	}

	viewer := s.getSessionUser(c)
	// don't display profile if user is banned or unverified
	if profile == nil || (profile.Priv.Hidden() && (viewer == nil || !viewer.Priv.Has(models.Staff))) {
		s.renderNotFound(c)
		return
	}

	var stats *models.Stats
	if idx, ok := models.ModeIndex(mods, mode); ok {
		stats, err = s.DB.GetStats(ctx, profile.ID, idx)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, "Failed to load stats", err.Error())
			return
		}
	}

	data := ProfilePageData{
		TemplateData: s.getBaseTemplateData(c, profile.Name),
		Profile:      profile,
		Stats:        stats,
		Mode:         mode,
		Mods:         mods,
		Modes:        models.ValidModes,
		ModsList:     models.ValidMods,
		IsOwner:      viewer != nil && viewer.ID == profile.ID,
	}
	s.renderTemplate(c, "profile.html", data)
}
