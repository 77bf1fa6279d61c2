// Package config reads ClientLens settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGenAI  = "genai"
	BackendGemini = "gemini"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ErrMissingAPIKey is returned by RequireCredentials when no credential is set.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY (or API_KEY) is not set")

type Config struct {
	APIKey   string
	Port     string
	Backend  string
	Model    string
	BaseURL  string
	Project  string
	Location string

	Temperature float32
	Timeout     time.Duration
	MaxRetries  int

	// WorkflowTTL is how long an untouched server-side workflow is kept.
	// Zero keeps workflows until they are deleted.
	WorkflowTTL time.Duration

	Store    string
	DBPath   string
	SeedFile string

	LogLevel  string
	LogFormat string
	Metrics   bool

	// PublicURL is the externally reachable base URL advertised in the
	// agent card.
	PublicURL string
}

func Default() Config {
	return Config{
		Port:        "8080",
		Backend:     BackendGenAI,
		Model:       "gemini-2.5-flash",
		Location:    "us-central1",
		Temperature: 0.4,
		Timeout:     60 * time.Second,
		MaxRetries:  1,
		WorkflowTTL: 30 * time.Minute,
		Store:       StoreMemory,
		DBPath:      defaultDBPath(),
		LogLevel:    "info",
		LogFormat:   "text",
		Metrics:     true,
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".clientlens", "clientlens.db")
	}
	return filepath.Join(home, ".clientlens", "clientlens.db")
}

// LoadDotEnv loads files (default ".env") into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment, falling back to
// defaults for unset variables. Malformed values are errors.
func Load() (Config, error) {
	cfg := Default()

	cfg.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
	setString(&cfg.Port, "PORT")
	setString(&cfg.PublicURL, "CLIENTLENS_PUBLIC_URL")
	setString(&cfg.Backend, "CLIENTLENS_BACKEND")
	setString(&cfg.Model, "CLIENTLENS_MODEL")
	setString(&cfg.BaseURL, "CLIENTLENS_BASE_URL")
	setString(&cfg.Project, "GOOGLE_CLOUD_PROJECT")
	setString(&cfg.Location, "GOOGLE_CLOUD_LOCATION")
	setString(&cfg.Store, "CLIENTLENS_STORE")
	setString(&cfg.DBPath, "CLIENTLENS_DB_PATH")
	setString(&cfg.SeedFile, "CLIENTLENS_SEED_FILE")
	setString(&cfg.LogLevel, "CLIENTLENS_LOG_LEVEL")
	setString(&cfg.LogFormat, "CLIENTLENS_LOG_FORMAT")

	if v := os.Getenv("CLIENTLENS_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f < 0 || f > 2 {
			return cfg, fmt.Errorf("CLIENTLENS_TEMPERATURE: %q is not a number between 0 and 2", v)
		}
		cfg.Temperature = float32(f)
	}
	if v := os.Getenv("CLIENTLENS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("CLIENTLENS_TIMEOUT: %q is not a positive duration", v)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("CLIENTLENS_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("CLIENTLENS_MAX_RETRIES: %q is not a non-negative integer", v)
		}
		cfg.MaxRetries = n
	}
	if v := os.Getenv("CLIENTLENS_WORKFLOW_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("CLIENTLENS_WORKFLOW_TTL: %q is not a non-negative duration", v)
		}
		cfg.WorkflowTTL = d
	}
	if v := os.Getenv("CLIENTLENS_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("CLIENTLENS_METRICS: %q is not a boolean", v)
		}
		cfg.Metrics = b
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendGenAI, BackendGemini:
	default:
		return fmt.Errorf("CLIENTLENS_BACKEND: %q is not one of genai, gemini", c.Backend)
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("CLIENTLENS_STORE: %q is not one of memory, sqlite", c.Store)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("CLIENTLENS_LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("CLIENTLENS_LOG_FORMAT: %q is not one of text, json", c.LogFormat)
	}
	if c.Port == "" {
		return errors.New("PORT: must not be empty")
	}
	if c.Project != "" && c.Backend != BackendGenAI {
		return errors.New("GOOGLE_CLOUD_PROJECT is only supported by the genai backend")
	}
	return nil
}

// RequireCredentials checks that a model call could authenticate.
func (c Config) RequireCredentials() error {
	if c.APIKey == "" && c.Project == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
