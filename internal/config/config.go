package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Belphemur/ubercache/cache"
	"github.com/Belphemur/ubercache/codec"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Cache    struct {
		MaxEntries  int    `mapstructure:"max_entries"` // Maximum number of resident entries
		MaxWeight   int64  `mapstructure:"max_weight"`  // 0 means unbounded
		DefaultTTL  string `mapstructure:"default_ttl"` // Go duration string like "1h"; "-1" disables expiry
		Codec       string `mapstructure:"codec"`       // clone or json
		Compression string `mapstructure:"compression"` // none, zstd, gzip or brotli
		Group       string `mapstructure:"group"`       // Prometheus "cache" label
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Server struct {
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	Load struct {
		Operations int  `mapstructure:"operations"`
		Hold       bool `mapstructure:"hold"` // keep serving metrics after the run
	} `mapstructure:"load"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	level := zerolog.InfoLevel
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("cache.max_weight", 0)
	v.SetDefault("cache.default_ttl", cache.DefaultTTL.String())
	v.SetDefault("cache.codec", "clone")
	v.SetDefault("cache.compression", codec.NoCompression)
	v.SetDefault("cache.group", "ubercache")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("server.address", "localhost")
	v.SetDefault("load.operations", 200000)
	v.SetDefault("load.hold", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
}

func LoadConfig() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variable support
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetLogger() zerolog.Logger {
	return logger
}

// TTL parses Cache.DefaultTTL. An empty value means the cache default; a
// negative duration disables default expiry.
func (c *Config) TTL() (time.Duration, error) {
	if c.Cache.DefaultTTL == "" {
		return 0, nil
	}
	if c.Cache.DefaultTTL == "-1" {
		return cache.NoExpiration, nil
	}
	ttl, err := time.ParseDuration(c.Cache.DefaultTTL)
	if err != nil {
		return 0, fmt.Errorf("config: cache.default_ttl: %w", err)
	}
	return ttl, nil
}

// CacheOptions builds the options of a cache holding arbitrary values.
// Logger and OnHandlerError are left for the caller to set.
func (c *Config) CacheOptions() (cache.Options[any], error) {
	ttl, err := c.TTL()
	if err != nil {
		return cache.Options[any]{}, err
	}
	valueCodec, err := codec.Build[any](c.Cache.Codec, c.Cache.Compression)
	if err != nil {
		return cache.Options[any]{}, fmt.Errorf("config: %w", err)
	}
	return cache.Options[any]{
		MaxEntries: c.Cache.MaxEntries,
		MaxWeight:  c.Cache.MaxWeight,
		DefaultTTL: ttl,
		Codec:      valueCodec,
		Group:      c.Cache.Group,
	}, nil
}
