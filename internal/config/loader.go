package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration, layering (lowest to highest precedence)
// defaults, an optional JSON config file and LEECHBOT_* environment
// variables. A bare BOT_TOKEN env var is also honored for parity with the
// original container deployment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix("LEECHBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if token := v.GetString("telegram.bot_token"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if cfg.Telegram.BotToken == "" {
		cfg.Telegram.BotToken = os.Getenv("BOT_TOKEN")
	}

	return cfg, nil
}
