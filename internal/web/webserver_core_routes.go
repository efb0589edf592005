// Package web provides the HTTP server and web interface for go-guweb
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/config"
	"github.com/go-while/go-guweb/internal/docs"
	"github.com/go-while/go-guweb/internal/models"
	"github.com/go-while/go-guweb/internal/session"
)

// AuthService runs the login, logout and registration flows
type AuthService interface {
	Login(ctx context.Context, current *models.SessionUser, username, password string) (*models.SessionUser, error)
	Logout(ctx context.Context, current *models.SessionUser) error
	Register(ctx context.Context, current *models.SessionUser, req auth.RegisterRequest) (*models.User, error)
	RegistrationEnabled(ctx context.Context) bool
}

// Store is the read side of the database the pages use
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserBySafeName(ctx context.Context, safeName string) (*models.User, error)
	GetStats(ctx context.Context, id int64, mode int) (*models.Stats, error)
	GetLeaderboard(ctx context.Context, mode int, sort string, limit int) ([]*models.LeaderboardEntry, error)
}

// Deps are the collaborators of the web server
type Deps struct {
	Auth     AuthService
	DB       Store
	Sessions *session.Manager
	Docs     *docs.Library
	Redis    redis.UniversalClient // optional; enables the login/register rate limit
}

// WebServer represents the web server
type WebServer struct {
	DB        Store
	Auth      AuthService
	Sessions  *session.Manager
	Docs      *docs.Library
	Router    *gin.Engine
	Config    *config.MainConfig
	StartTime time.Time // Track server start time for uptime calculations

	redis     redis.UniversalClient
	templates map[string]*template.Template
	srv       *http.Server
}

// NewServer creates a new web server instance
func NewServer(cfg *config.MainConfig, deps Deps) (*WebServer, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure Gin to trust reverse proxy headers for c.ClientIP()
	if err := router.SetTrustedProxies(cfg.Web.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if cfg.Web.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	server := &WebServer{
		DB:        deps.DB,
		Auth:      deps.Auth,
		Sessions:  deps.Sessions,
		Docs:      deps.Docs,
		Router:    router,
		Config:    cfg,
		redis:     deps.Redis,
		templates: templates,
	}

	router.Use(server.ApacheLogFormat())
	router.Use(secure.New(secureConfig))
	router.Use(server.sessionMiddleware())

	if cfg.Web.Debug {
		files, err := ListEmbeddedFiles()
		if err != nil {
			return nil, fmt.Errorf("embedded static files: %w", err)
		}
		log.Printf("[WEB]: Serving %d embedded static files: %v", len(files), files)
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	// Static files first
	s.Router.GET("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	s.Router.GET("/", s.homePage)
	s.Router.GET("/home", s.homePage)
	s.Router.GET("/settings", s.settingsPage)
	s.Router.GET("/u/:user", s.profilePage)

	s.Router.GET("/leaderboard", s.leaderboardDefaultPage)
	s.Router.GET("/leaderboard/:mode/:sort/:mods", s.leaderboardPage)

	// Authentication routes
	limited := s.RateLimitMiddleware()
	s.Router.GET("/login", s.loginPage)
	s.Router.POST("/login", limited, s.loginSubmit)
	s.Router.GET("/register", s.registerPage)
	s.Router.POST("/register", limited, s.registerSubmit)
	s.Router.GET("/logout", s.logout)

	s.Router.GET("/docs", s.docsPage)
	s.Router.GET("/doc/:doc", s.docPage)
	s.Router.GET("/discord", s.discordRedirect)

	s.Router.NoRoute(s.renderNotFound)
}

// Start starts the web server with SSL support if configured.
// It returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	addr := ":" + strconv.Itoa(s.Config.Web.ListenPort)
	s.StartTime = time.Now() // Set the start time for uptime calculations
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.Config.Web.SSL {
		if s.Config.Web.CertFile == "" || s.Config.Web.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("[WEB]: Starting HTTPS server on %s", addr)
		return s.srv.ListenAndServeTLS(s.Config.Web.CertFile, s.Config.Web.KeyFile)
	}
	log.Printf("[WEB]: Starting HTTP server on %s", addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests
func (s *WebServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	log.Printf("[WEB]: Stopping web server after %s uptime", s.Uptime().Round(time.Second))
	return s.srv.Shutdown(ctx)
}

// Uptime reports how long the server has been running, zero before Start
func (s *WebServer) Uptime() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime)
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
