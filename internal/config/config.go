package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCollectInterval = 15 * time.Minute
	DefaultStatusInterval  = 60 * time.Minute
	DefaultPollInterval    = 60 * time.Second
)

type Config struct {
	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile   string // log file written next to the console output ("" = console only)

	PipelineCmd     []string      // argv of the collection pipeline, ex: ["python3", "-m", "pipeline", "collect"]
	PipelineTimeout time.Duration // 0 = no timeout
	StatsFile       string        // path of the persisted stats (.json, .yaml or .yml)

	CollectInterval time.Duration // collection cadence (default: 15m)
	StatusInterval  time.Duration // status report cadence (default: 60m)
	PollInterval    time.Duration // scheduler tick (default: 60s)

	ListenPort      string        // status server address, ex: ":8080" ("" = disabled)
	ShutdownTimeout time.Duration // ex: 5s
	AllowedCIDRS    []string      // optional, restrict /api/stats to specific IPs/CIDRs (e.g. "10.0.0.0/8, 1.2.3.4")

	// Redis stats mirror (optional)
	RedisAddr           string        // ex: "localhost:6379" ("" = disabled)
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisInstance       string        // optional key suffix when several daemons share a DB
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
}

func Load() *Config {
	cfg := &Config{
		// Logging
		LogLevel:  getenv("SIGHTINGS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SIGHTINGS_PRETTY_LOG", true),
		LogFile:   getenv("SIGHTINGS_LOG_FILE", "sightings_service.log"),

		// Pipeline and persistence
		PipelineCmd:     requireEnvFields("SIGHTINGS_PIPELINE_CMD"),
		PipelineTimeout: mustDuration("SIGHTINGS_PIPELINE_TIMEOUT", 0),
		StatsFile:       getenv("SIGHTINGS_STATS_FILE", "collection_stats.json"),

		// Scheduling
		CollectInterval: positiveDuration("SIGHTINGS_COLLECT_INTERVAL", DefaultCollectInterval),
		StatusInterval:  positiveDuration("SIGHTINGS_STATUS_INTERVAL", DefaultStatusInterval),
		PollInterval:    positiveDuration("SIGHTINGS_POLL_INTERVAL", DefaultPollInterval),

		// Status server
		ListenPort:      getenv("SIGHTINGS_LISTEN_PORT", ""),
		ShutdownTimeout: mustDuration("SIGHTINGS_SHUTDOWN_TIMEOUT", 5*time.Second),
		AllowedCIDRS:    splitAndTrim(getenv("SIGHTINGS_ALLOWED_CIDRS", "")),

		// Redis settings
		RedisAddr:           getenv("SIGHTINGS_REDIS_ADDR", ""),
		RedisUser:           getenv("SIGHTINGS_REDIS_USERNAME", ""),
		RedisPassword:       getenv("SIGHTINGS_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SIGHTINGS_REDIS_DB", 0),
		RedisInstance:       getenv("SIGHTINGS_REDIS_INSTANCE", ""),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireEnvFields splits a required command line on whitespace.
func requireEnvFields(key string) []string {
	fields := strings.Fields(requireEnv(key))
	if len(fields) == 0 {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is blank", key))
	}
	return fields
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// positiveDuration is mustDuration that also rejects zero and negative values.
func positiveDuration(key string, def time.Duration) time.Duration {
	if d := mustDuration(key, def); d > 0 {
		return d
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
