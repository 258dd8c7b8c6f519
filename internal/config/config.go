package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"regexp"  // regexp validates the configured table name
	"strings"
	"time"
)

// Timestamp policies decide what happens when a stored timestamp cannot be parsed.
const (
	TimestampStrict = "strict" // fail the whole request
	TimestampSkip   = "skip"   // drop the row and log a warning
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // echo logger level (debug, info, warn, error, off)

	DBDriver   string         // "mysql" or "postgres"
	DBUser     string         // database username
	DBPass     string         // database password (optional)
	DBHost     string         // database host address
	DBPort     string         // database port number
	DBName     string         // database name
	DBSSLMode  string         // postgres sslmode, ignored for mysql
	DBLocation *time.Location // location used for timestamps stored as text

	ReadingsTable   string        // table the ingester appends to
	DefaultLimit    int           // limit used when the request carries none
	MaxLimit        int           // larger limits are clamped to this value
	QueryTimeout    time.Duration // upper bound for a single readings query
	TimestampPolicy string        // TimestampStrict or TimestampSkip
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:      must("APP_ENV"),  // environment (dev/test/prod)
		Port:     must("APP_PORT"), // port to bind the HTTP server
		LogLevel: strings.ToLower(envStr("LOG_LEVEL", "info")),

		DBDriver:  strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBUser:    must("DB_USER"),      // database user
		DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:    must("DB_HOST"),      // database host
		DBPort:    must("DB_PORT"),      // database port
		DBName:    must("DB_NAME"),      // database name
		DBSSLMode: envStr("DB_SSLMODE", "disable"),

		ReadingsTable:   envStr("READINGS_TABLE", "baby_monitor"),
		DefaultLimit:    envInt("READINGS_DEFAULT_LIMIT", 50),
		MaxLimit:        envInt("READINGS_MAX_LIMIT", 1000),
		QueryTimeout:    envDur("READINGS_QUERY_TIMEOUT", 5*time.Second),
		TimestampPolicy: strings.ToLower(envStr("TIMESTAMP_POLICY", TimestampStrict)),
	}

	loc, err := time.LoadLocation(envStr("DB_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("invalid DB_TIMEZONE: %v", err)
	}
	cfg.DBLocation = loc

	if err := cfg.validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", c.DBDriver)
	}
	if !identRe.MatchString(c.ReadingsTable) {
		return fmt.Errorf("READINGS_TABLE is not a plain identifier: %q", c.ReadingsTable)
	}
	if c.MaxLimit < 1 {
		return fmt.Errorf("READINGS_MAX_LIMIT must be positive, got %d", c.MaxLimit)
	}
	if c.DefaultLimit < 0 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("READINGS_DEFAULT_LIMIT must be within [0, %d], got %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("READINGS_QUERY_TIMEOUT must be positive")
	}
	switch c.TimestampPolicy {
	case TimestampStrict, TimestampSkip:
	default:
		return fmt.Errorf("TIMESTAMP_POLICY must be strict or skip, got %q", c.TimestampPolicy)
	}
	return nil
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
