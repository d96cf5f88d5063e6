package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

const (
	defaultEnvFile      = ".env"
	defaultAddr         = ":8080"
	defaultContentDir   = "docs"
	defaultSiteFile     = "site.yaml"
	defaultExt          = "html"
	defaultSourceExt    = "md"
	defaultLogLevel     = "info"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Content  ContentConfig
	Log      LogConfig
	Features FeatureFlags
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr         string
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ContentConfig locates the documents being served.
type ContentConfig struct {
	Dir        string
	SiteFile   string
	DefaultExt string
	SourceExt  string
}

type LogConfig struct {
	Level string
}

// FeatureFlags toggle optional behaviour without redeploying.
type FeatureFlags struct {
	EnableMetrics bool
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file consulted for defaults. An empty path disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values that take precedence over every other source.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from defaults, the dotenv file, the process
// environment and explicit overrides, in increasing order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	addr := defaultAddr
	if port := stringWithDefault(lookup, "PORT", ""); port != "" {
		addr = ":" + port
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:         stringWithDefault(lookup, "HANKO_DOCS_ADDR", addr),
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "HANKO_DOCS_BASE_URL", ""), "/"),
			ReadTimeout:  durationWithDefault(lookup, "HANKO_DOCS_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "HANKO_DOCS_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "HANKO_DOCS_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Content: ContentConfig{
			Dir:        stringWithDefault(lookup, "HANKO_DOCS_CONTENT_DIR", defaultContentDir),
			SiteFile:   stringWithDefault(lookup, "HANKO_DOCS_SITE_FILE", defaultSiteFile),
			DefaultExt: stringWithDefault(lookup, "HANKO_DOCS_DEFAULT_EXT", defaultExt),
			SourceExt:  stringWithDefault(lookup, "HANKO_DOCS_SOURCE_EXT", defaultSourceExt),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "HANKO_DOCS_LOG_LEVEL", defaultLogLevel),
		},
		Features: FeatureFlags{
			EnableMetrics: boolWithDefault(lookup, "HANKO_DOCS_METRICS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (cfg Config) Validate() error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		invalid = append(invalid, "Server.Addr")
	}
	if cfg.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "Server.WriteTimeout")
	}
	if cfg.Server.IdleTimeout <= 0 {
		invalid = append(invalid, "Server.IdleTimeout")
	}
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		invalid = append(invalid, "Content.Dir")
	}
	if !validExt(cfg.Content.DefaultExt) {
		invalid = append(invalid, "Content.DefaultExt")
	}
	if !validExt(cfg.Content.SourceExt) {
		invalid = append(invalid, "Content.SourceExt")
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		invalid = append(invalid, "Log.Level")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func validExt(ext string) bool {
	return ext != "" && !strings.ContainsAny(ext, "./ ")
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
