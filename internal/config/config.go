package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings, loaded from the environment or an
// optional .env file in the given path.
type Config struct {
	ServerPort   string        `mapstructure:"SERVER_PORT"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTTTL       time.Duration `mapstructure:"JWT_TTL"`
	ClientOrigin string        `mapstructure:"CLIENT_ORIGIN"`
	AWSRegion    string        `mapstructure:"AWS_REGION"`
	EmailFrom    string        `mapstructure:"EMAIL_FROM"`
	UploadDir    string        `mapstructure:"UPLOAD_DIR"`
}

// LoadConfig reads configuration from env vars, falling back to a .env
// file if one exists at path.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("JWT_TTL", 7*24*time.Hour)
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:5173")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("UPLOAD_DIR", "uploads")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.LoadConfig: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config.LoadConfig: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config.LoadConfig: JWT_SECRET is required")
	}
	return &cfg, nil
}
