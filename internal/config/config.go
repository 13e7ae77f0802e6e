package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/prospector-cli/internal/store"
)

// Config holds the full application configuration. Simulation switches
// every external collaborator into deterministic offline mode for the
// whole run; it is read once at startup and passed into each constructor.
type Config struct {
	Simulation bool            `yaml:"simulation" mapstructure:"simulation"`
	Store      StoreConfig     `yaml:"store" mapstructure:"store"`
	Places     PlacesConfig    `yaml:"places" mapstructure:"places"`
	Hunter     HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Anthropic  AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	SMTP       SMTPConfig      `yaml:"smtp" mapstructure:"smtp"`
	Search     SearchConfig    `yaml:"search" mapstructure:"search"`
	Probe      ProbeConfig     `yaml:"probe" mapstructure:"probe"`
	Server     ServerConfig    `yaml:"server" mapstructure:"server"`
	Log        LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the ledger backend.
type StoreConfig struct {
	Driver      string            `yaml:"driver" mapstructure:"driver"`
	Path        string            `yaml:"path" mapstructure:"path"`
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PlacesConfig holds Google Places API settings.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for message generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SMTPConfig holds outbound email settings.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// SearchConfig holds default place-search parameters.
type SearchConfig struct {
	Keyword      string `yaml:"keyword" mapstructure:"keyword"`
	Location     string `yaml:"location" mapstructure:"location"`
	RadiusMeters int    `yaml:"radius_meters" mapstructure:"radius_meters"`
	MaxResults   int    `yaml:"max_results" mapstructure:"max_results"`
}

// ProbeConfig configures website reachability probing.
type ProbeConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the review server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("simulation", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "prospects.db")
	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "prospection@example.com")
	v.SetDefault("search.keyword", "bakery")
	v.SetDefault("search.location", "48.8566,2.3522")
	v.SetDefault("search.radius_meters", 5000)
	v.SetDefault("search.max_results", 50)
	v.SetDefault("probe.timeout_secs", 10)
	v.SetDefault("probe.rate_per_sec", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the credentials a command needs are present. In
// simulation mode no collaborator touches the network, so nothing is
// required. Mode is one of "prospect", "outreach", "serve".
func (c *Config) Validate(mode string) error {
	if err := c.validateStore(); err != nil {
		return err
	}

	if c.Simulation {
		return nil
	}

	var missing []string
	switch mode {
	case "prospect":
		if c.Places.Key == "" {
			missing = append(missing, "places.key is required")
		}
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.SMTP.Host == "" {
			missing = append(missing, "smtp.host is required")
		}
	case "outreach":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.SMTP.Host == "" {
			missing = append(missing, "smtp.host is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			missing = append(missing, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return eris.New("config: store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
