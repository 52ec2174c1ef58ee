// Package config loads server configuration.
//
// Sources, lowest priority first:
//
//  1. Defaults()
//  2. a .env file (joho/godotenv), if present
//  3. process environment variables
//  4. command-line flags (spf13/pflag), only the ones actually given
//
// A real environment variable beats the same key in .env, matching what
// godotenv.Load does when it refuses to overwrite existing variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds server configuration.
type Config struct {
	Port       int
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	LogLevel   string // debug | info | warn | error
	LogFormat  string // text | json
	BcryptCost int
}

const defaultEnvFile = ".env"

func Defaults() Config {
	return Config{
		Port:       8080,
		DBPath:     "data/shopping.db",
		TokenTTL:   60 * time.Minute,
		Issuer:     "shopping-list-api",
		LogLevel:   "info",
		LogFormat:  "text",
		BcryptCost: 12,
	}
}

// Load builds the configuration from args (without the program name) and
// getenv, usually os.Args[1:] and os.Getenv.
// pflag.ErrHelp is returned unchanged when -h/--help is given.
func Load(args []string, getenv func(string) string) (Config, error) {
	var (
		flagged Config
		envFile string
	)
	flagSet := pflag.NewFlagSet("shopping-list-api", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file to read before the environment")
	flagSet.IntVar(&flagged.Port, "port", 0, "HTTP listen port (PORT)")
	flagSet.StringVar(&flagged.DBPath, "db", "", "SQLite database path, or :memory: (DB_PATH)")
	flagSet.StringVar(&flagged.JWTSecret, "jwt-secret", "", "HMAC secret for access tokens, at least 16 characters (JWT_SECRET)")
	flagSet.DurationVar(&flagged.TokenTTL, "token-ttl", 0, "access token lifetime, e.g. 60m or 15m (TOKEN_TTL)")
	flagSet.StringVar(&flagged.Issuer, "issuer", "", "JWT issuer claim (JWT_ISSUER)")
	flagSet.StringVar(&flagged.LogLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flagSet.StringVar(&flagged.LogFormat, "log-format", "", "text or json (LOG_FORMAT)")
	flagSet.IntVar(&flagged.BcryptCost, "bcrypt-cost", 0, "bcrypt work factor, 4-31 (BCRYPT_COST)")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, err
	}

	fileVals, err := godotenv.Read(envFile)
	if err != nil {
		// A missing default .env is normal; a missing explicit one is not.
		if !errors.Is(err, fs.ErrNotExist) || flagSet.Changed("env-file") {
			return Config{}, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
		fileVals = map[string]string{}
	}

	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fileVals[key]
	}

	cfg := Defaults()
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if flagSet.Changed("port") {
		cfg.Port = flagged.Port
	}
	if flagSet.Changed("db") {
		cfg.DBPath = flagged.DBPath
	}
	if flagSet.Changed("jwt-secret") {
		cfg.JWTSecret = flagged.JWTSecret
	}
	if flagSet.Changed("token-ttl") {
		cfg.TokenTTL = flagged.TokenTTL
	}
	if flagSet.Changed("issuer") {
		cfg.Issuer = flagged.Issuer
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = flagged.LogLevel
	}
	if flagSet.Changed("log-format") {
		cfg.LogFormat = flagged.LogFormat
	}
	if flagSet.Changed("bcrypt-cost") {
		cfg.BcryptCost = flagged.BcryptCost
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) string) error {
	if v := lookup("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: PORT %q is not a number", v)
		}
		c.Port = port
	}
	if v := lookup("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := lookup("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := lookup("TOKEN_TTL"); v != "" {
		ttl, err := parseTTL(v)
		if err != nil {
			return fmt.Errorf("config: TOKEN_TTL: %w", err)
		}
		c.TokenTTL = ttl
	}
	if v := lookup("JWT_ISSUER"); v != "" {
		c.Issuer = v
	}
	if v := lookup("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := lookup("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := lookup("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BCRYPT_COST %q is not a number", v)
		}
		c.BcryptCost = cost
	}
	return nil
}

// parseTTL accepts a Go duration ("15m", "1h") or a bare number of minutes.
func parseTTL(v string) (time.Duration, error) {
	if mins, err := strconv.Atoi(v); err == nil {
		return time.Duration(mins) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a duration nor minutes", v)
	}
	return d, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be set to at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token TTL must be positive, got %s", c.TokenTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("config: database path is empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log format %q, want text or json", c.LogFormat)
	}
	return nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", s, err)
	}
	return level, nil
}
