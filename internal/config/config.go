package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Task      TaskConfig      `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig contains the plan-building and scheduling settings.
type SchedulerConfig struct {
	// Timezone is the IANA zone whose calendar dates the daily plan is
	// keyed by.
	Timezone string `mapstructure:"timezone" validate:"required"`

	// DueLimit caps the due cards added to a day's plan.
	DueLimit int `mapstructure:"due_limit" validate:"gt=0"`

	// LeechLimit caps the leech cards added to a day's plan.
	LeechLimit int `mapstructure:"leech_limit" validate:"gt=0"`

	// LeechThreshold is the lapse count at which a card is flagged a leech.
	LeechThreshold int `mapstructure:"leech_threshold" validate:"gt=0"`

	// NewLimit caps the new cards added to a day's plan.
	NewLimit int `mapstructure:"new_limit" validate:"gt=0"`

	// ChallengeBatchSize is the default size of an ad-hoc challenge batch.
	ChallengeBatchSize int `mapstructure:"challenge_batch_size" validate:"gt=0"`

	// PoolFallback lets batch study fall back to the due/new pool when the
	// day's plan is exhausted.
	PoolFallback bool `mapstructure:"pool_fallback"`
}

// TaskConfig contains background task settings.
type TaskConfig struct {
	// PlanRebuildInterval is how often the background runner refreshes the
	// daily plan. Zero disables the runner.
	PlanRebuildInterval time.Duration `mapstructure:"plan_rebuild_interval"`
}
