package dbreset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Supported drivers. The names are the database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvHost     = "POSTGRES_HOST"
	EnvDatabase = "POSTGRES_DATABASE"
	EnvUser     = "POSTGRES_USERNAME"
	EnvPassword = "POSTGRES_PASSWORD"
	EnvPort     = "POSTGRES_PORT"
	EnvSSLMode  = "POSTGRES_SSLMODE"
)

// Config holds connection parameters for the target database.
type Config struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Path is the database file for the sqlite3 driver.
	Path string
}

// ConfigFromEnv builds a postgres Config from POSTGRES_* variables.
//
// Each env file is loaded first with godotenv; variables already present
// in the environment win. Missing env files are skipped.
func ConfigFromEnv(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug("env file not found, using process environment", "path", f)
				continue
			}
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Config{
		Driver:   DriverPostgres,
		Host:     os.Getenv(EnvHost),
		Database: os.Getenv(EnvDatabase),
		User:     os.Getenv(EnvUser),
		Password: os.Getenv(EnvPassword),
		SSLMode:  os.Getenv(EnvSSLMode),
	}
	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid port %q: %w", EnvPort, raw, err)
		}
		cfg.Port = port
	}
	return cfg.WithDefaults(), nil
}

// WithDefaults fills the postgres port and sslmode when unset.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.Driver == DriverPostgres {
		if c.Port == 0 {
			c.Port = defaultPort
		}
		if c.SSLMode == "" {
			c.SSLMode = defaultSSLMode
		}
	}
	return c
}

// Validate reports the first missing connection parameter.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		switch {
		case c.Host == "":
			return fmt.Errorf("postgres: host is required (%s)", EnvHost)
		case c.Database == "":
			return fmt.Errorf("postgres: database is required (%s)", EnvDatabase)
		case c.User == "":
			return fmt.Errorf("postgres: user is required (%s)", EnvUser)
		case c.Port <= 0 || c.Port > 65535:
			return fmt.Errorf("postgres: port %d out of range", c.Port)
		}
	case DriverSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite3: path is required")
		}
	default:
		return fmt.Errorf("unsupported driver %q (want %s or %s)", c.Driver, DriverPostgres, DriverSQLite)
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Redacted is DSN with the password masked, for logs.
func (c Config) Redacted() string {
	if c.Password == "" {
		return c.DSN()
	}
	masked := c
	masked.Password = "xxxxx"
	return masked.DSN()
}
