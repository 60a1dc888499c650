// Package config loads process configuration from the environment inputs
// named in §6: USERNAME, PASSWORD, SECRET_KEY, HOST, PORT, CORS_ORIGINS,
// SESSION_MAX_AGE, MONGODB_URI, MONGODB_DB, RESULTS_RETENTION. Only HOST,
// PORT, the storage URI, and RESULTS_RETENTION drive the core; the rest
// are carried through for the surrounding HTTP surface.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved process configuration.
type Config struct {
	Username          string
	Password          string
	SecretKey         string
	Host              string
	Port              int
	CORSOrigins       []string
	SessionMaxAge     time.Duration
	StorageURI        string
	StorageDatabase   string
	ResultsRetention  int
	LogLevel          string
	SchedulerWorkers  int
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Every field is overridable via its uppercase env var
// name (viper.AutomaticEnv); this never reads a config file.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("session_max_age", 3600)
	v.SetDefault("mongodb_uri", "")
	v.SetDefault("mongodb_db", "")
	v.SetDefault("results_retention", 1000)
	v.SetDefault("log_level", "info")
	v.SetDefault("scheduler_workers", 32)

	origins := strings.Split(v.GetString("cors_origins"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		Username:         v.GetString("username"),
		Password:         v.GetString("password"),
		SecretKey:        v.GetString("secret_key"),
		Host:             v.GetString("host"),
		Port:             v.GetInt("port"),
		CORSOrigins:      origins,
		SessionMaxAge:    time.Duration(v.GetInt("session_max_age")) * time.Second,
		StorageURI:       v.GetString("mongodb_uri"),
		StorageDatabase:  v.GetString("mongodb_db"),
		ResultsRetention: v.GetInt("results_retention"),
		LogLevel:         v.GetString("log_level"),
		SchedulerWorkers: v.GetInt("scheduler_workers"),
	}
}

// UsesPostgres reports whether StorageURI names a durable backing store
// rather than the in-memory fallback (tests, and any process started with
// no URI configured, use the in-memory store).
func (c Config) UsesPostgres() bool {
	return c.StorageURI != ""
}

// Addr returns the host:port pair the HTTP server binds to.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
