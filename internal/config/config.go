package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	SweepSchedule   string        `mapstructure:"SWEEP_SCHEDULE"`
	LockWaitTimeout time.Duration `mapstructure:"LOCK_WAIT_TIMEOUT"`
}

// LoadConfig reads configuration from an env file at path, falling back to
// environment variables and defaults when no file is present.
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("SWEEP_SCHEDULE", "@every 1m")
	viper.SetDefault("LOCK_WAIT_TIMEOUT", "2s")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&cfg)
	return
}
