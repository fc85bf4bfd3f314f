package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Snippets SnippetsConfig `yaml:"snippets"`
	Docc     DoccConfig     `yaml:"docc"`
	Targets  TargetsConfig  `yaml:"targets"`
	Render   RenderConfig   `yaml:"render"`
	Cache    CacheConfig    `yaml:"cache"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SnippetsConfig controls snippet discovery and extraction.
type SnippetsConfig struct {
	Roots      []string `yaml:"roots,omitempty"`      // directories scanned for snippet sources
	Extensions []string `yaml:"extensions,omitempty"` // file extensions eligible for extraction
}

// DoccConfig controls how the external docc compiler is invoked.
type DoccConfig struct {
	Path            string   `yaml:"path,omitempty"` // explicit docc executable; PATH lookup otherwise
	Catalog         string   `yaml:"catalog,omitempty"`
	Output          string   `yaml:"output,omitempty"`
	HostingBasePath string   `yaml:"hosting_base_path,omitempty"`
	SourceService   string   `yaml:"source_service,omitempty"`   // "auto", "github", "gitlab", "bitbucket" or "none"
	SymbolGraphDir  string   `yaml:"symbol_graph_dir,omitempty"` // pre-built symbol graphs handed to docc
	ExtraFlags      []string `yaml:"extra_flags,omitempty"`
}

// TargetsConfig locates the buildable-unit dump this tool consumes.
type TargetsConfig struct {
	DumpPath string   `yaml:"dump_path,omitempty"`
	Kinds    []string `yaml:"kinds,omitempty"` // target kinds eligible for documentation
}

// RenderConfig controls the rendered snippet pages.
type RenderConfig struct {
	Output string `yaml:"output,omitempty"` // staging directory for generated Markdown
}

// CacheConfig controls the incremental extraction cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// DaemonConfig controls watch mode. Durations are stored as strings
// ("2s", "30m") and parsed on access; invalid values fall back to defaults.
type DaemonConfig struct {
	Debounce        string `yaml:"debounce,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`
	MetricsListen   string `yaml:"metrics_listen,omitempty"` // e.g. ":9464"; empty disables metrics
}

// DebounceDuration returns the parsed debounce window.
func (d DaemonConfig) DebounceDuration() time.Duration {
	return parseDurationOr(d.Debounce, 2*time.Second)
}

// RebuildIntervalDuration returns the parsed periodic rebuild interval.
func (d DaemonConfig) RebuildIntervalDuration() time.Duration {
	return parseDurationOr(d.RebuildInterval, 30*time.Minute)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// EventsConfig configures the optional NATS build-event publisher.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file and applies defaults.
func Load(configPath string) (*Config, error) {
	// Load .env if present; its absence is not an error.
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded environment variables from .env")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file exists (every setting has a workable zero-config value).
func Default() *Config {
	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Snippets.Roots) == 0 {
		c.Snippets.Roots = []string{"Snippets"}
	}
	if len(c.Snippets.Extensions) == 0 {
		c.Snippets.Extensions = []string{".swift"}
	}
	if c.Docc.Output == "" {
		c.Docc.Output = ".doccbuild/archive.doccarchive"
	}
	if c.Docc.SourceService == "" {
		c.Docc.SourceService = "auto"
	}
	if c.Targets.DumpPath == "" {
		c.Targets.DumpPath = "targets.json"
	}
	if len(c.Targets.Kinds) == 0 {
		c.Targets.Kinds = []string{"library", "executable"}
	}
	if c.Render.Output == "" {
		c.Render.Output = ".doccbuild/snippets"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".doccbuild/cache.db"
	}
	if c.Daemon.Debounce == "" {
		c.Daemon.Debounce = "2s"
	}
	if c.Daemon.RebuildInterval == "" {
		c.Daemon.RebuildInterval = "30m"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "doccbuild.builds"
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Snippets: SnippetsConfig{
			Roots:      []string{"Snippets"},
			Extensions: []string{".swift"},
		},
		Docc: DoccConfig{
			Catalog:         "Docs.docc",
			Output:          ".doccbuild/archive.doccarchive",
			HostingBasePath: "my-package",
			SourceService:   "auto",
		},
		Targets: TargetsConfig{
			DumpPath: "targets.json",
			Kinds:    []string{"library"},
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    ".doccbuild/cache.db",
		},
		Daemon: DaemonConfig{
			Debounce:        "2s",
			RebuildInterval: "30m",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
