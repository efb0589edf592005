package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/go-while/go-guweb/internal/auth"
	"github.com/go-while/go-guweb/internal/cache"
	"github.com/go-while/go-guweb/internal/config"
	"github.com/go-while/go-guweb/internal/database"
	"github.com/go-while/go-guweb/internal/docs"
	"github.com/go-while/go-guweb/internal/events"
	"github.com/go-while/go-guweb/internal/geoip"
	"github.com/go-while/go-guweb/internal/session"
	"github.com/go-while/go-guweb/internal/web"
)

// app holds everything main wires together
type app struct {
	cfg      *config.MainConfig
	db       *database.Database
	rdb      *redis.Client
	geo      *geoip.MaxMind
	auth     *auth.Service
	sessions *session.Manager
	docs     *docs.Library
	stats    cache.StatsReporter
}

// setupApp opens the database and the optional backends
func setupApp(ctx context.Context, cfg *config.MainConfig) (*app, error) {
	a := &app{cfg: cfg}

	db, err := database.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	log.Printf("[WEB]: Database ready (%s)", db.Driver())

	opts := auth.Options{
		Store:               db,
		Registration:        cfg.Registration,
		DisallowedNames:     cfg.DisallowedNames,
		DisallowedPasswords: cfg.DisallowedPasswords,
		BcryptCost:          cfg.BcryptCost,
		Debug:               cfg.Web.Debug,
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rdb != nil {
		a.rdb = rdb
		rc := cache.NewRedisCache(rdb, cfg.Redis.Prefix)
		opts.Cache, a.stats = rc, rc
		log.Printf("[WEB]: Using Redis credential cache at %s", cfg.Redis.Addr)
	} else {
		mc := cache.NewMemoryCache()
		opts.Cache, a.stats = mc, mc
		log.Printf("[WEB]: Using in-memory credential cache")
	}

	if cfg.GeoIPDatabase != "" {
		geo, err := geoip.OpenMaxMind(cfg.GeoIPDatabase)
		if err != nil {
			// registration still works, countries resolve to xx
			log.Printf("[WEB]: GeoIP disabled: %v", err)
		} else {
			a.geo = geo
			opts.Locator = geo
		}
	}

	if cfg.AMQPURL != "" {
		opts.Events = events.NewAMQPPublisher(cfg.AMQPURL)
		log.Printf("[WEB]: Publishing registration events to AMQP")
	}

	a.auth = auth.NewService(opts)
	a.sessions = session.NewManager(cfg.Web.SessionSecret, cfg.Web.SessionTTL, cfg.Web.Debug)
	a.docs = docs.NewLibrary(cfg.DocsDir)
	return a, nil
}

func (a *app) deps() web.Deps {
	deps := web.Deps{
		Auth:     a.auth,
		DB:       a.db,
		Sessions: a.sessions,
		Docs:     a.docs,
	}
	// keep the interface nil when Redis is not configured
	if a.rdb != nil {
		deps.Redis = a.rdb
	}
	return deps
}

// logCacheStats reports the credential cache counters
func (a *app) logCacheStats() {
	if a.stats != nil {
		log.Printf("[WEB]: credential cache: %s", a.stats.Stats())
	}
}

// Close releases the backends
func (a *app) Close() {
	if a.geo != nil {
		if err := a.geo.Close(); err != nil {
			log.Printf("[WEB]: Error closing GeoIP database: %v", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Printf("[WEB]: Error closing Redis client: %v", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("[WEB]: Failed to shutdown database: %v", err)
		} else {
			log.Printf("[WEB]: Database shutdown successfully")
		}
	}
}
