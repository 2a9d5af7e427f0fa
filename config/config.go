package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Session    SessionConfig    `json:"session"`
	Automotive AutomotiveConfig `json:"automotive"`
	Solar      SolarConfig      `json:"solar"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Format string `json:"format"` // "json" or "text"
	Level  string `json:"level"`
}

// SessionConfig contains session cookie settings
type SessionConfig struct {
	// MasterKey is the base64-encoded key used to encrypt cookie values
	MasterKey string `json:"master_key"`
	// Secure marks cookies as HTTPS-only; disable for local development
	Secure bool `json:"secure"`
}

// AutomotiveConfig contains the automotive vendor API settings
type AutomotiveConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Scope        string `json:"scope"`
	Audience     string `json:"audience"`
	TokenURL     string `json:"token_url"`
	BaseURL      string `json:"base_url"`
}

// SolarConfig contains the solar vendor API settings
type SolarConfig struct {
	AppKey      string `json:"app_key"`
	SecretKey   string `json:"secret_key"`
	RedirectURI string `json:"redirect_uri"`
	TokenURL    string `json:"token_url"`
	BaseURL     string `json:"base_url"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Session.MasterKey == "" {
		return fmt.Errorf("%w: session master key is required", ErrInvalidConfig)
	}

	if c.Automotive.ClientID == "" || c.Automotive.ClientSecret == "" {
		return fmt.Errorf("%w: automotive client credentials are required", ErrInvalidConfig)
	}

	if c.Solar.AppKey == "" || c.Solar.SecretKey == "" {
		return fmt.Errorf("%w: solar app credentials are required", ErrInvalidConfig)
	}

	if c.Automotive.TokenURL == "" {
		c.Automotive.TokenURL = "https://auth.tesla.com/oauth2/v3/token" // default
	}
	if c.Automotive.BaseURL == "" {
		c.Automotive.BaseURL = "https://owner-api.teslamotors.com"
	}
	if c.Solar.TokenURL == "" {
		c.Solar.TokenURL = "https://augateway.isolarcloud.com/openapi/apiManage/token"
	}
	if c.Solar.BaseURL == "" {
		c.Solar.BaseURL = "https://augateway.isolarcloud.com"
	}

	return nil
}

// Load loads configuration from a JSON file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("VOLTBRIDGE_HOST", "0.0.0.0"),
			Port: getEnvInt("VOLTBRIDGE_PORT", 8080),
		},
		Logging: LoggingConfig{
			Format: getEnv("VOLTBRIDGE_LOG_FORMAT", "json"),
			Level:  getEnv("VOLTBRIDGE_LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			MasterKey: getEnv("VOLTBRIDGE_SESSION_KEY", ""),
			Secure:    getEnvBool("VOLTBRIDGE_SESSION_SECURE", true),
		},
		Automotive: AutomotiveConfig{
			ClientID:     getEnv("VOLTBRIDGE_AUTO_CLIENT_ID", ""),
			ClientSecret: getEnv("VOLTBRIDGE_AUTO_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("VOLTBRIDGE_AUTO_REDIRECT_URI", ""),
			Scope:        getEnv("VOLTBRIDGE_AUTO_SCOPE", "openid vehicle_device_data vehicle_cmds vehicle_charging_cmds"),
			Audience:     getEnv("VOLTBRIDGE_AUTO_AUDIENCE", ""),
			TokenURL:     getEnv("VOLTBRIDGE_AUTO_TOKEN_URL", ""),
			BaseURL:      getEnv("VOLTBRIDGE_AUTO_BASE_URL", ""),
		},
		Solar: SolarConfig{
			AppKey:      getEnv("VOLTBRIDGE_SOLAR_APP_KEY", ""),
			SecretKey:   getEnv("VOLTBRIDGE_SOLAR_SECRET_KEY", ""),
			RedirectURI: getEnv("VOLTBRIDGE_SOLAR_REDIRECT_URI", ""),
			TokenURL:    getEnv("VOLTBRIDGE_SOLAR_TOKEN_URL", ""),
			BaseURL:     getEnv("VOLTBRIDGE_SOLAR_BASE_URL", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
