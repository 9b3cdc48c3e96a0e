package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Telegram TelegramConfig `mapstructure:"telegram" validate:"required"`
	Scanner  ScannerConfig  `mapstructure:"scanner" validate:"required"`
	Keygen   KeygenConfig   `mapstructure:"keygen"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication and authorization settings.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenExpiry time.Duration `mapstructure:"token_expiry" validate:"required"`
}

// TelegramConfig contains Bot API settings for outgoing notifications.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
	APIBase  string `mapstructure:"api_base" validate:"required,url"`
}

// ScannerConfig tunes the due-task notification sweep.
type ScannerConfig struct {
	Interval  time.Duration `mapstructure:"interval" validate:"required"`
	Lookahead time.Duration `mapstructure:"lookahead" validate:"required"`
	Timezone  string        `mapstructure:"timezone" validate:"required"`
}

// KeygenConfig tunes entity key generation.
type KeygenConfig struct {
	Prefix string `mapstructure:"prefix" validate:"omitempty,max=3,alphanum"`
}
