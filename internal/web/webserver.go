package web

import (
	"html/template"

	"github.com/go-while/go-guweb/internal/models"
	"github.com/go-while/go-guweb/internal/session"
)

// TemplateData holds data the base template needs on every page
type TemplateData struct {
	Title               template.HTML
	CurrentTime         string
	AppVersion          string
	User                *models.SessionUser
	IsStaff             bool
	RegistrationEnabled bool
	Flash               *session.Flash
}

// ErrorPageData is rendered by error.html and 404.html
type ErrorPageData struct {
	TemplateData
	Error      string
	StatusCode int
}

// ProfilePageData represents data for the profile page
type ProfilePageData struct {
	TemplateData
	Profile  *models.User
	Stats    *models.Stats
	Mode     string
	Mods     string
	Modes    []string
	ModsList []string
	IsOwner  bool
}

// LeaderboardPageData represents data for the leaderboard page
type LeaderboardPageData struct {
	TemplateData
	Mode     string
	Sort     string
	Mods     string
	Modes    []string
	Sorts    []string
	ModsList []string
	Entries  []*models.LeaderboardEntry
}

// LoginPageData represents data for the login page
type LoginPageData struct {
	TemplateData
	Username string
}

// RegisterPageData represents data for the register page
type RegisterPageData struct {
	TemplateData
	Username string
	Email    string
}

// VerifyPageData is shown after registering or logging into an unverified account
type VerifyPageData struct {
	TemplateData
	Username string
}

// DocsPageData lists the available docs
type DocsPageData struct {
	TemplateData
	Docs []DocLink
}

// DocLink is one entry of the docs index
type DocLink struct {
	Name  string
	Title string
}

// DocPageData holds one rendered doc
type DocPageData struct {
	TemplateData
	Content template.HTML
}
