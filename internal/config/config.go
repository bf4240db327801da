// Package config loads application configuration from environment variables
// and an optional .env file.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Ledger   LedgerConfig
}

// AppConfig holds server-level settings.
type AppConfig struct {
	Name     string
	Env      string
	Addr     string
	LogLevel string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// DSN returns the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// JWTConfig holds token settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// LedgerConfig holds stock engine policy settings.
type LedgerConfig struct {
	// RevertLockWindow is how long after creation an allocation may still
	// be reverted. Checked against the database clock, never the client's.
	RevertLockWindow time.Duration
}

// Load reads configuration from the environment (and .env when present).
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("no .env file, using environment variables: %v", err)
	}

	viper.SetDefault("APP_NAME", "retailops")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_ADDR", ":8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "retailops")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 25)
	viper.SetDefault("DB_MIN_CONNS", 5)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_TTL_MINUTES", 720)
	viper.SetDefault("REVERT_LOCK_HOURS", 24)

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Addr:     viper.GetString("APP_ADDR"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			MinConns: viper.GetInt32("DB_MIN_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			TTL:    time.Duration(viper.GetInt("JWT_TTL_MINUTES")) * time.Minute,
		},
		Ledger: LedgerConfig{
			RevertLockWindow: time.Duration(viper.GetInt("REVERT_LOCK_HOURS")) * time.Hour,
		},
	}
}
