package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and from environment
// variables. Environment variables use the KIOKU_ prefix with underscores for
// nesting (e.g. KIOKU_SERVER_PORT, KIOKU_DATABASE_URL) and take precedence
// over file values. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply.
	}

	// Environment variables: KIOKU_SERVER_PORT overrides server.port
	v.SetEnvPrefix("KIOKU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting so a bare
// environment only needs KIOKU_DATABASE_URL to start the server.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Registered empty so AutomaticEnv can see KIOKU_DATABASE_URL; the
	// required validation still rejects a blank URL.
	v.SetDefault("database.url", "")

	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.due_limit", 200)
	v.SetDefault("scheduler.leech_limit", 100)
	v.SetDefault("scheduler.leech_threshold", 8)
	v.SetDefault("scheduler.new_limit", 20)
	v.SetDefault("scheduler.challenge_batch_size", 10)
	v.SetDefault("scheduler.pool_fallback", true)

	v.SetDefault("task.plan_rebuild_interval", 15*time.Minute)
}
