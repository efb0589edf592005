// Web frontend for go-guweb
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	prof "github.com/go-while/go-cpu-mem-profiler"

	"github.com/go-while/go-guweb/internal/config"
	"github.com/go-while/go-guweb/internal/web"
)

var (
	// command-line flags
	configFile  string
	envFile     string
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	dbDriver    string
	dbDSN       string
	redisAddr   string
	debug       bool
	withPprof   string
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", "config.json", "JSON config file (optional)")
	flag.StringVar(&envFile, "env", ".env", "dotenv file loaded into the environment (optional)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 8080)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&dbDriver, "dbdriver", "", "database driver: sqlite3 or mysql")
	flag.StringVar(&dbDSN, "dbdsn", "", "database DSN (sqlite3: file path)")
	flag.StringVar(&redisAddr, "redis", "", "Redis address host:port for the credential cache and rate limit")
	flag.BoolVar(&debug, "debug", false, "log authentication details")
	flag.StringVar(&withPprof, "pprof", "", "serve pprof on this address, e.g. :51111")
	flag.Parse()

	log.Printf("Starting go-guweb: Web Server (version: %s)", appVersion)

	// defaults < config file < .env < environment < flags
	mainConfig := config.NewDefaultConfig()
	if err := mainConfig.LoadFile(configFile); err != nil {
		log.Fatalf("[WEB]: %v", err)
	}
	config.LoadDotEnv(envFile)
	mainConfig.ApplyEnv()
	applyFlags(mainConfig)

	if err := mainConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	if mainConfig.Web.ListenPort < 1 || mainConfig.Web.ListenPort > 65535 {
		log.Fatalf("[WEB]: Invalid port number: %d (must be between 1 and 65535)", mainConfig.Web.ListenPort)
	}
	if !mainConfig.Web.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if withPprof != "" {
		Prof := prof.NewProf()
		go Prof.PprofWeb(withPprof)
		log.Printf("[WEB]: pprof listening on %s", withPprof)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := setupApp(ctx, mainConfig)
	cancel()
	if err != nil {
		log.Fatalf("[WEB]: %v", err)
	}
	defer app.Close()

	server, err := web.NewServer(mainConfig, app.deps())
	if err != nil {
		log.Fatalf("[WEB]: Failed to create web server: %v", err)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			webServerErrChan <- err
		}
	}()
	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	select {
	case <-sigChan:
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Fatalf("[WEB]: Failed to start web server: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WEB]: Error stopping web server: %v", err)
	}
	log.Printf("[WEB]: Waiting for background tasks to finish...")
	app.auth.Wait()
	app.logCacheStats()
	log.Printf("[WEB]: Graceful shutdown completed")
} // end main

// applyFlags overrides config values with command-line flags if provided
func applyFlags(cfg *config.MainConfig) {
	if webport > 0 {
		cfg.Web.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webport)
	}
	if webssl {
		cfg.Web.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		cfg.Web.CertFile = webcertFile
	}
	if webkeyFile != "" {
		cfg.Web.KeyFile = webkeyFile
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}
	if redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
	if debug {
		cfg.Web.Debug = true
	}
}
