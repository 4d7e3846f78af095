package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Reimbursement ReimbursementConfig `mapstructure:"reimbursement"`
	Logger        LoggerConfig        `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// ReimbursementConfig holds process-level reimbursement settings
type ReimbursementConfig struct {
	// MileageRate is the per-mile reimbursement rate applied to mileage entries.
	MileageRate string `mapstructure:"mileage_rate"`
	// UnconfiguredPolicy decides what happens when a cost center has no rule:
	// PASS_THROUGH or REJECT.
	UnconfiguredPolicy string `mapstructure:"unconfigured_policy"`
}

// MileageRateDecimal parses the configured mileage rate.
func (c ReimbursementConfig) MileageRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.MileageRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid reimbursement.mileage_rate %q: %w", c.MileageRate, err)
	}
	return rate, nil
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "fieldexpense")
	viper.SetDefault("database.ssl_mode", "disable")

	viper.SetDefault("jwt.secret", "default_super_secret_key")

	viper.SetDefault("reimbursement.mileage_rate", "0.655")
	viper.SetDefault("reimbursement.unconfigured_policy", "PASS_THROUGH")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.name", "DB_NAME")
	viper.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("reimbursement.mileage_rate", "MILEAGE_RATE")
	viper.BindEnv("reimbursement.unconfigured_policy", "UNCONFIGURED_RULE_POLICY")
	viper.BindEnv("logger.level", "LOG_LEVEL")
	viper.BindEnv("logger.format", "LOG_FORMAT")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if _, err := c.Reimbursement.MileageRateDecimal(); err != nil {
		return err
	}
	switch c.Reimbursement.UnconfiguredPolicy {
	case "PASS_THROUGH", "REJECT":
	default:
		return fmt.Errorf("reimbursement.unconfigured_policy must be PASS_THROUGH or REJECT, got %q", c.Reimbursement.UnconfiguredPolicy)
	}
	return nil
}
