package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vango-dev/blogfront/internal/errors"
)

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "blogfront.json"

	// EnvFileName is the name of the optional dotenv file.
	EnvFileName = ".env"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":3000"

	// DefaultBaseURL is the default content API root.
	DefaultBaseURL = "https://frontend-case-api.sbdev.nl"

	// DefaultTokenHeader is the default API token header name.
	DefaultTokenHeader = "token"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"
)

// Staging backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Config is the complete blogfront configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Upstream UpstreamConfig `json:"upstream"`
	Staging  StagingConfig  `json:"staging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Feed     FeedConfig     `json:"feed"`
	Log      LogConfig      `json:"log"`

	// configPath is the file the config was read from, if any.
	configPath string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty"`

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout Duration `json:"readHeaderTimeout,omitempty"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty"`
}

// UpstreamConfig configures the content API client.
type UpstreamConfig struct {
	BaseURL     string `json:"baseURL,omitempty"`
	Token       string `json:"token,omitempty"`
	TokenHeader string `json:"tokenHeader,omitempty"`

	// Timeout bounds each upstream call. Zero means no timeout.
	Timeout Duration `json:"timeout,omitempty"`
}

// StagingConfig configures where uploads are held while relayed.
type StagingConfig struct {
	// Backend is "disk" or "s3".
	Backend string `json:"backend,omitempty"`

	// Dir is the disk backend directory.
	Dir string `json:"dir,omitempty"`

	// MaxAge is how old a staged entry must be before the sweeper removes it.
	MaxAge Duration `json:"maxAge,omitempty"`

	// SweepInterval is how often the server sweeps. Zero sweeps only at
	// startup.
	SweepInterval Duration `json:"sweepInterval,omitempty"`

	S3 S3Config `json:"s3,omitempty"`
}

// S3Config configures the s3 staging backend.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyID,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Disabled bool   `json:"disabled,omitempty"`
	Path     string `json:"path,omitempty"`
}

// FeedConfig configures the live post feed.
type FeedConfig struct {
	Disabled bool `json:"disabled,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// Dir is searched for blogfront.json and .env. Default: ".".
	Dir string

	// File, if set, must exist and replaces Dir/blogfront.json.
	File string

	// EnvFile, if set, must exist and replaces Dir/.env.
	EnvFile string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Load builds a Config from defaults, the JSON file, the dotenv file and
// the environment. It does not validate; call Validate after applying
// flags.
func Load(opts LoadOptions) (*Config, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg := &Config{}

	path, required := opts.File, true
	if path == "" {
		path, required = filepath.Join(opts.Dir, ConfigFileName), false
	}
	if err := cfg.readFile(path, required); err != nil {
		return nil, err
	}

	envPath, required := opts.EnvFile, true
	if envPath == "" {
		envPath, required = filepath.Join(opts.Dir, EnvFileName), false
	}
	dotenv, err := readDotenv(envPath, required)
	if err != nil {
		return nil, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := opts.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
	}
	c.configPath = path
	return nil
}

func readDotenv(path string, required bool) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil, nil
		}
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Cannot read " + path).
			Wrap(err)
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	dur := func(key string, dst *Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			if firstErr == nil {
				firstErr = envError(key, v, err)
			}
			return
		}
		*dst = Duration(d)
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			if firstErr == nil {
				firstErr = envError(key, v, err)
			}
			return
		}
		*dst = b
	}

	str("API_TOKEN", &c.Upstream.Token)
	str("UPSTREAM_URL", &c.Upstream.BaseURL)
	str("BLOGFRONT_ADDR", &c.Server.Address)
	str("BLOGFRONT_TOKEN_HEADER", &c.Upstream.TokenHeader)
	dur("BLOGFRONT_UPSTREAM_TIMEOUT", &c.Upstream.Timeout)

	str("BLOGFRONT_STAGING_BACKEND", &c.Staging.Backend)
	str("BLOGFRONT_STAGING_DIR", &c.Staging.Dir)
	dur("BLOGFRONT_STAGING_MAX_AGE", &c.Staging.MaxAge)
	dur("BLOGFRONT_SWEEP_INTERVAL", &c.Staging.SweepInterval)
	str("BLOGFRONT_S3_BUCKET", &c.Staging.S3.Bucket)
	str("BLOGFRONT_S3_PREFIX", &c.Staging.S3.Prefix)
	str("BLOGFRONT_S3_REGION", &c.Staging.S3.Region)
	str("BLOGFRONT_S3_ENDPOINT", &c.Staging.S3.Endpoint)
	str("BLOGFRONT_S3_ACCESS_KEY_ID", &c.Staging.S3.AccessKeyID)
	str("BLOGFRONT_S3_SECRET_ACCESS_KEY", &c.Staging.S3.SecretAccessKey)

	boolean("BLOGFRONT_METRICS_DISABLED", &c.Metrics.Disabled)
	boolean("BLOGFRONT_FEED_DISABLED", &c.Feed.Disabled)
	str("BLOGFRONT_LOG_LEVEL", &c.Log.Level)
	str("BLOGFRONT_LOG_FORMAT", &c.Log.Format)

	return firstErr
}

func envError(key, value string, err error) error {
	return errors.New(errors.CodeConfigInvalid).
		WithDetail(fmt.Sprintf("%s=%q is not valid", key, value)).
		Wrap(err)
}

// applyDefaults fills every empty field.
func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = Duration(10 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(30 * time.Second)
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.TokenHeader == "" {
		c.Upstream.TokenHeader = DefaultTokenHeader
	}

	if c.Staging.Backend == "" {
		c.Staging.Backend = BackendDisk
	}
	if c.Staging.Dir == "" {
		c.Staging.Dir = filepath.Join(os.TempDir(), "blogfront")
	}
	if c.Staging.MaxAge == 0 {
		c.Staging.MaxAge = Duration(time.Hour)
	}
	if c.Staging.SweepInterval == 0 {
		c.Staging.SweepInterval = Duration(10 * time.Minute)
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.Token) == "" {
		return errors.New(errors.CodeMissingAPIToken)
	}

	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if c.Server.Address == "" {
		return invalid("server.address must not be empty")
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return invalid("upstream.baseURL must be an http or https URL, got " + strconv.Quote(c.Upstream.BaseURL))
	}
	if c.Upstream.Timeout < 0 {
		return invalid("upstream.timeout must not be negative")
	}
	if c.Server.ShutdownTimeout < 0 || c.Server.ReadHeaderTimeout < 0 {
		return invalid("server timeouts must not be negative")
	}

	switch c.Staging.Backend {
	case BackendDisk:
		if c.Staging.Dir == "" {
			return invalid("staging.dir must not be empty")
		}
	case BackendS3:
		if c.Staging.S3.Bucket == "" {
			return invalid("staging.s3.bucket is required for the s3 backend")
		}
	default:
		return invalid("staging.backend must be \"disk\" or \"s3\", got " + strconv.Quote(c.Staging.Backend))
	}
	if c.Staging.MaxAge <= 0 {
		return invalid("staging.maxAge must be positive")
	}
	if c.Staging.SweepInterval < 0 {
		return invalid("staging.sweepInterval must not be negative")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be \"text\" or \"json\"")
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Path returns the file the config was read from, or "".
func (c *Config) Path() string {
	return c.configPath
}

// SaveTo writes the config as indented JSON. The API token is omitted.
func (c *Config) SaveTo(path string) error {
	out := *c
	out.Upstream.Token = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
