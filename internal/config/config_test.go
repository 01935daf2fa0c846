package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/scoutteam/internal/extractor"
	"github.com/pfrederiksen/scoutteam/internal/logger"
)

// clearEnv unsets every variable the package reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvModel, EnvAddr, EnvLogLevel, EnvLogFile, EnvCatalog, EnvUserAgent} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	c := Default()

	if c.Model != extractor.DefaultModel {
		t.Errorf("Model = %q", c.Model)
	}
	if c.Addr != "0.0.0.0:8000" {
		t.Errorf("Addr = %q", c.Addr)
	}
	if c.LogFile != "api_debug.log" {
		t.Errorf("LogFile = %q", c.LogFile)
	}
	if c.FetchTimeout != 30*time.Second || c.ModelTimeout != 120*time.Second {
		t.Errorf("timeouts = %v / %v", c.FetchTimeout, c.ModelTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() error: %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk-test")
	t.Setenv(EnvModel, "claude-test")
	t.Setenv(EnvAddr, "127.0.0.1:9090")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvUserAgent, "scout-test/0.1")

	c := FromEnv()

	if c.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", c.APIKey)
	}
	if c.Model != "claude-test" || c.Addr != "127.0.0.1:9090" || c.UserAgent != "scout-test/0.1" {
		t.Errorf("config = %+v", c)
	}
	if c.Level() != logger.LevelWarn {
		t.Errorf("Level() = %q", c.Level())
	}
	if c.LogFile != DefaultLogFile {
		t.Errorf("unset variable should keep the default, got LogFile = %q", c.LogFile)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvModel, "from-environment")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SCOUT_USER_AGENT=from-dotenv/1.0\nSCOUT_MODEL=from-dotenv\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if c.UserAgent != "from-dotenv/1.0" {
		t.Errorf("UserAgent = %q, want value from .env", c.UserAgent)
	}
	if c.Model != "from-environment" {
		t.Errorf("Model = %q, environment should win over .env", c.Model)
	}
}

func TestLoad_MissingDotEnv(t *testing.T) {
	clearEnv(t)

	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	if err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
	if c.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", c.Addr)
	}
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ANTHROPIC_API_KEY=\"unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for a malformed .env")
	}
	if !strings.Contains(err.Error(), "loading .env") {
		t.Errorf("error = %q, should name the .env file", err)
	}
	if c.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", c.Addr)
	}
}

func TestLoad_UnreadableDotEnv(t *testing.T) {
	clearEnv(t)

	// a directory cannot be parsed as a .env file
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for a .env path that is a directory")
	}
}

func TestValidate(t *testing.T) {
	catalogFile := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(catalogFile, []byte("universities: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid with catalog file",
			modify: func(c *Config) { c.CatalogPath = catalogFile },
		},
		{
			name:   "lowercase level",
			modify: func(c *Config) { c.LogLevel = "info" },
		},
		{
			name:    "unknown level",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "LogLevel must be one of",
		},
		{
			name:    "bad address",
			modify:  func(c *Config) { c.Addr = "localhost" },
			wantErr: "Addr must be host:port",
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.Concurrency = 0 },
			wantErr: "Concurrency must be at least 1",
		},
		{
			name:    "too much concurrency",
			modify:  func(c *Config) { c.Concurrency = 100 },
			wantErr: "Concurrency must be at most 16",
		},
		{
			name:    "sub-second fetch timeout",
			modify:  func(c *Config) { c.FetchTimeout = 10 * time.Millisecond },
			wantErr: "FetchTimeout must be at least",
		},
		{
			name:    "missing catalog file",
			modify:  func(c *Config) { c.CatalogPath = filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "CatalogPath does not exist",
		},
		{
			name:    "empty model",
			modify:  func(c *Config) { c.Model = "" },
			wantErr: "Model is required",
		},
		{
			name: "every problem is reported",
			modify: func(c *Config) {
				c.Model = ""
				c.MaxTokens = 0
			},
			wantErr: "Model is required; MaxTokens must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	c := Default()
	if err := c.RequireAPIKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("RequireAPIKey() = %v, want ErrNoAPIKey", err)
	}

	c.APIKey = "  "
	if err := c.RequireAPIKey(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("blank key: RequireAPIKey() = %v, want ErrNoAPIKey", err)
	}

	c.APIKey = "sk-test"
	if err := c.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey() = %v", err)
	}
}
