package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads key=value pairs from the given files into the process
// environment. Variables already set are kept. Missing files are skipped.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("[CONFIG]: failed to load %s: %v", f, err)
		}
	}
}

// ApplyEnv overlays settings taken from environment variables onto cfg
func (cfg *MainConfig) ApplyEnv() {
	cfg.Web.Debug = envBool("DEBUG", cfg.Web.Debug)
	cfg.Web.ListenPort = envInt("WEB_PORT", cfg.Web.ListenPort)
	cfg.Web.SessionSecret = envStr("SESSION_SECRET", cfg.Web.SessionSecret)
	cfg.Web.SessionTTL = envDur("SESSION_TTL", cfg.Web.SessionTTL)
	cfg.Web.TrustedProxies = envList("TRUSTED_PROXIES", cfg.Web.TrustedProxies)

	cfg.Registration = envBool("REGISTRATION_ENABLED", cfg.Registration)
	cfg.DisallowedNames = envList("DISALLOWED_NAMES", cfg.DisallowedNames)
	cfg.DisallowedPasswords = envList("DISALLOWED_PASSWORDS", cfg.DisallowedPasswords)
	cfg.DiscordServer = envStr("DISCORD_SERVER", cfg.DiscordServer)
	cfg.BcryptCost = envInt("BCRYPT_COST", cfg.BcryptCost)
	cfg.GeoIPDatabase = envStr("GEOIP_DB", cfg.GeoIPDatabase)
	cfg.DocsDir = envStr("DOCS_DIR", cfg.DocsDir)
	cfg.AMQPURL = envStr("AMQP_URL", cfg.AMQPURL)

	cfg.Database.Driver = envStr("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envStr("DB_DSN", cfg.Database.DSN)
	cfg.Database.User = envStr("DB_USER", cfg.Database.User)
	cfg.Database.Pass = envStr("DB_PASS", cfg.Database.Pass)
	cfg.Database.Host = envStr("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = envStr("DB_PORT", cfg.Database.Port)
	cfg.Database.Name = envStr("DB_NAME", cfg.Database.Name)

	cfg.Redis.Addr = envStr("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envStr("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)

	cfg.RateLimit.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Capacity = envInt("RATE_LIMIT_CAPACITY", cfg.RateLimit.Capacity)
	cfg.RateLimit.RefillInterval = envDur("RATE_LIMIT_REFILL", cfg.RateLimit.RefillInterval)
}

func envStr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[CONFIG]: invalid integer for %s=%q, keeping %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[CONFIG]: invalid boolean for %s=%q, keeping %t", key, v, def)
		return def
	}
	return b
}

func envDur(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[CONFIG]: invalid duration for %s=%q, keeping %s", key, v, def)
		return def
	}
	return d
}

// envList splits a comma separated value; empty items are dropped
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
