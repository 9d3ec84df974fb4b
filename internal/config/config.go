package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "GRATEFUL"

type Config struct {
	Bind                     string
	Port                     int
	PublicURL                string
	DatabaseURL              string
	AutoMigrate              bool
	HostAuthSecret           string
	AllowedOrigins           []string
	LogLevel                 string
	LogFormat                string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	ShutdownTimeout          time.Duration
}

func Default() Config {
	return Config{
		Bind:                     "0.0.0.0",
		Port:                     8080,
		AllowedOrigins:           []string{"http://localhost:3000"},
		LogLevel:                 "info",
		LogFormat:                "json",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		ShutdownTimeout:          10 * time.Second,
	}
}

// RegisterFlags adds one flag per setting, defaulting to the values already
// in c.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", c.Bind, "address to bind to (env: GRATEFUL_BIND)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to listen on (env: GRATEFUL_PORT)")
	fs.StringVar(&c.PublicURL, "public-url", c.PublicURL, "external base URL used in join links (env: GRATEFUL_PUBLIC_URL)")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "postgres:// or sqlite: URL; empty keeps games in memory (env: GRATEFUL_DATABASE_URL)")
	fs.BoolVar(&c.AutoMigrate, "auto-migrate", c.AutoMigrate, "run gorm auto-migrations on start (env: GRATEFUL_AUTO_MIGRATE)")
	fs.StringVar(&c.HostAuthSecret, "host-auth-secret", c.HostAuthSecret, "HS256 secret for host bearer tokens (env: GRATEFUL_HOST_AUTH_SECRET)")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", c.AllowedOrigins, "CORS origins for the web client (env: GRATEFUL_ALLOWED_ORIGINS)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (env: GRATEFUL_LOG_LEVEL)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "json or console (env: GRATEFUL_LOG_FORMAT)")
	fs.IntVar(&c.DBMaxOpenConns, "db-max-open-conns", c.DBMaxOpenConns, "database pool size (env: GRATEFUL_DB_MAX_OPEN_CONNS)")
	fs.IntVar(&c.DBMaxIdleConns, "db-max-idle-conns", c.DBMaxIdleConns, "idle connections kept (env: GRATEFUL_DB_MAX_IDLE_CONNS)")
	fs.IntVar(&c.DBConnMaxLifetimeSeconds, "db-conn-max-lifetime-seconds", c.DBConnMaxLifetimeSeconds, "connection lifetime (env: GRATEFUL_DB_CONN_MAX_LIFETIME_SECONDS)")
	fs.IntVar(&c.DBConnMaxIdleTimeSeconds, "db-conn-max-idle-seconds", c.DBConnMaxIdleTimeSeconds, "idle connection lifetime (env: GRATEFUL_DB_CONN_MAX_IDLE_SECONDS)")
	fs.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "grace period for open requests on exit (env: GRATEFUL_SHUTDOWN_TIMEOUT)")
}

// Bind lets environment variables fill any flag the command line left unset.
func Bind(fs *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
	return v
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.HostAuthSecret == "" {
		return errors.New("--host-auth-secret is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
