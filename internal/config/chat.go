package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

// ChatConfig is the terminal client configuration.
type ChatConfig struct {
	Alias            string           `mapstructure:"alias" validate:"max=36"`
	ServerURL        string           `mapstructure:"server_url" validate:"required,url"`
	Credentials      core.Credentials `mapstructure:"credentials" validate:"-"`
	DividerThreshold time.Duration    `mapstructure:"divider_threshold" validate:"gte=0s"`
	SendTimeout      time.Duration    `mapstructure:"send_timeout" validate:"gte=0s"`
	MaxFrame         int64            `mapstructure:"max_frame" validate:"min=512"`
	LogLevel         string           `mapstructure:"log_level"`
	// P2P selects a direct data channel instead of the relay: "offer" or "answer".
	P2P string `mapstructure:"p2p" validate:"omitempty,oneof=offer answer"`
}

// ChatFlags registers the client flags on fs. Flag names match config keys.
func ChatFlags(fs *pflag.FlagSet) {
	fs.String("alias", "", "display name")
	fs.String("server_url", "ws://localhost:8080/api/ws/signal", "relay websocket url")
	fs.String("credentials.api_key", "", "relay api key")
	fs.String("credentials.session_id", "", "chat session to join")
	fs.String("credentials.token", "", "session token")
	fs.Duration("divider_threshold", core.DefaultDividerThreshold, "gap that renders a time divider")
	fs.Duration("send_timeout", 10*time.Second, "per-message delivery timeout")
	fs.Int64("max_frame", 32768, "largest frame the relay accepts, in bytes")
	fs.String("log_level", "warn", "log level")
	fs.String("p2p", "", "chat over a direct WebRTC data channel: offer or answer")
}

// LoadChat merges defaults, config/textchat.<env>.yaml, TEXTCHAT_* env and the
// parsed flags, in increasing priority.
func LoadChat(fs *pflag.FlagSet) (*ChatConfig, error) {
	v := newViper("textchat")
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	v.SetDefault("server_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("divider_threshold", core.DefaultDividerThreshold)
	v.SetDefault("send_timeout", "10s")
	v.SetDefault("max_frame", 32768)
	v.SetDefault("log_level", "warn")
	v.SetDefault("p2p", "")
	// Nested keys are only seen by AutomaticEnv once they are known to viper.
	v.SetDefault("credentials.api_key", "")
	v.SetDefault("credentials.session_id", "")
	v.SetDefault("credentials.token", "")

	var cfg ChatConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
