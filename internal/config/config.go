package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config is the relay server configuration.
type Config struct {
	Mode         string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadLimit    int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod   time.Duration `mapstructure:"ping_period" validate:"min=1s"`
	Secret       string        `mapstructure:"secret" validate:"required,min=16"`
	APIKey       string        `mapstructure:"api_key"`
	RateLimit    int           `mapstructure:"rate_limit" validate:"min=1"`
	RateInterval time.Duration `mapstructure:"rate_interval" validate:"gt=0s"`
	TokenTTL     time.Duration `mapstructure:"token_ttl" validate:"gt=0s"`
	Backpressure string        `mapstructure:"backpressure" validate:"oneof=kick drop"`
	LogLevel     string        `mapstructure:"log_level"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// newViper reads config/config.<CONFIG_ENV>.yaml when present and lets
// TEXTCHAT_* variables override any key.
func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/%s.%s.yaml", prefix, env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("TEXTCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Debug().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}
	return v
}

func Load() (*Config, error) {
	v := newViper("config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("api_key", "")
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_interval", "10s")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("server config")
	return &cfg, nil
}

// SetupLogging installs the console writer and the level named by level.
func SetupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
