// Package config assembles process settings from defaults, an optional .env file and the
// environment. Command-line flags are layered on top by the cli package, which uses the
// values returned here as flag defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rusq/osenv/v2"

	"github.com/pfrederiksen/scoutteam/internal/extractor"
	"github.com/pfrederiksen/scoutteam/internal/logger"
	"github.com/pfrederiksen/scoutteam/internal/scraper"
)

// Environment variables
const (
	EnvAPIKey    = "ANTHROPIC_API_KEY"
	EnvModel     = "SCOUT_MODEL"
	EnvAddr      = "SCOUT_ADDR"
	EnvLogLevel  = "SCOUT_LOG_LEVEL"
	EnvLogFile   = "SCOUT_LOG_FILE"
	EnvCatalog   = "SCOUT_CATALOG"
	EnvUserAgent = "SCOUT_USER_AGENT"
)

// Defaults
const (
	DefaultAddr         = "0.0.0.0:8000"
	DefaultLogLevel     = "DEBUG"
	DefaultLogFile      = "api_debug.log"
	DefaultModelTimeout = 120 * time.Second
	DefaultConcurrency  = 1
)

// ErrNoAPIKey is returned by RequireAPIKey when no model credential is configured
var ErrNoAPIKey = errors.New(EnvAPIKey + " is not set")

// Config holds every runtime setting
type Config struct {
	APIKey       string
	Model        string        `validate:"required"`
	MaxTokens    int           `validate:"min=1,max=64000"`
	Addr         string        `validate:"required,hostname_port"`
	LogLevel     string        `validate:"required,loglevel"`
	LogFile      string        `validate:"omitempty,filepath"`
	CatalogPath  string        `validate:"omitempty,file"`
	FetchTimeout time.Duration `validate:"min=1s"`
	ModelTimeout time.Duration `validate:"min=1s"`
	Concurrency  int           `validate:"min=1,max=16"`
	UserAgent    string        `validate:"required"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Model:        extractor.DefaultModel,
		MaxTokens:    extractor.DefaultMaxTokens,
		Addr:         DefaultAddr,
		LogLevel:     DefaultLogLevel,
		LogFile:      DefaultLogFile,
		FetchTimeout: scraper.Timeout,
		ModelTimeout: DefaultModelTimeout,
		Concurrency:  DefaultConcurrency,
		UserAgent:    scraper.UserAgent,
	}
}

// Load reads the given .env files (".env" when none are named) into the process
// environment, without overriding variables that are already set, then returns the
// defaults overlaid with the environment. A missing .env file is not an error; an
// unreadable or malformed one is, and the returned Config then ignores it.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return FromEnv(), fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv returns the defaults overlaid with the environment
func FromEnv() Config {
	c := Default()
	c.APIKey = osenv.Secret(EnvAPIKey, "")
	c.Model = osenv.Value(EnvModel, c.Model)
	c.Addr = osenv.Value(EnvAddr, c.Addr)
	c.LogLevel = osenv.Value(EnvLogLevel, c.LogLevel)
	c.LogFile = osenv.Value(EnvLogFile, c.LogFile)
	c.CatalogPath = osenv.Value(EnvCatalog, c.CatalogPath)
	c.UserAgent = osenv.Value(EnvUserAgent, c.UserAgent)
	return c
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := logger.ParseLevel(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field and reports all problems at once
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var vErr validator.ValidationErrors
	if !errors.As(err, &vErr) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(vErr))
	for _, fe := range vErr {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s (got %v)", fe.Field(), bound(fe.Tag()), fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port (got %q)", fe.Field(), fe.Value())
	case "loglevel":
		return fmt.Sprintf("%s must be one of debug, info, warn, error (got %q)", fe.Field(), fe.Value())
	case "file":
		return fmt.Sprintf("%s does not exist or is not a file: %v", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())
	}
}

func bound(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

// RequireAPIKey reports whether the model credential is present
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrNoAPIKey
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c Config) Level() logger.Level {
	l, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return l
}
