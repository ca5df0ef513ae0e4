package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Source   SourceConfig   `mapstructure:"source"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ThresholdConfig holds the approval tiers for one document kind.
type ThresholdConfig struct {
	AutoApprove float64 `mapstructure:"auto_approve"`
	Level1      float64 `mapstructure:"level_1"`
	Level2      float64 `mapstructure:"level_2"`
}

// WorkflowConfig holds the business rules of the validation engine.
// Threshold changes only affect documents submitted afterwards; levels are
// frozen on the document at submission.
type WorkflowConfig struct {
	InvoiceThresholds ThresholdConfig `mapstructure:"invoice_thresholds"`
	ExpenseThresholds ThresholdConfig `mapstructure:"expense_thresholds"`
	DedupEpsilon      float64         `mapstructure:"dedup_epsilon"`
	BaseCurrency      string          `mapstructure:"base_currency"`
	StandardVATRate   float64         `mapstructure:"standard_vat_rate"`
}

// SourceConfig holds the external record store configuration
type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`

	// SeedFallback serves the built-in demo data when the store is down.
	SeedFallback bool `mapstructure:"seed_fallback"`
}

// AuthConfig holds JWT authentication configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Thresholds maps the configured tiers by document kind for the approval
// service.
func (c WorkflowConfig) Thresholds() map[string]entity.Thresholds {
	return map[string]entity.Thresholds{
		entity.KindSupplierInvoice: {
			AutoApprove: c.InvoiceThresholds.AutoApprove,
			Level1:      c.InvoiceThresholds.Level1,
			Level2:      c.InvoiceThresholds.Level2,
		},
		entity.KindExpenseReport: {
			AutoApprove: c.ExpenseThresholds.AutoApprove,
			Level1:      c.ExpenseThresholds.Level1,
			Level2:      c.ExpenseThresholds.Level2,
		},
	}
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

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
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/finance.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("workflow.invoice_thresholds.auto_approve", 200.0)
	viper.SetDefault("workflow.invoice_thresholds.level_1", 5000.0)
	viper.SetDefault("workflow.invoice_thresholds.level_2", 20000.0)
	viper.SetDefault("workflow.expense_thresholds.auto_approve", 200.0)
	viper.SetDefault("workflow.expense_thresholds.level_1", 1000.0)
	viper.SetDefault("workflow.expense_thresholds.level_2", 5000.0)
	viper.SetDefault("workflow.dedup_epsilon", 5.0)
	viper.SetDefault("workflow.base_currency", "CHF")
	viper.SetDefault("workflow.standard_vat_rate", 8.1)

	viper.SetDefault("source.base_url", "http://localhost:7070")
	viper.SetDefault("source.timeout", 10*time.Second)
	viper.SetDefault("source.seed_fallback", true)

	viper.SetDefault("auth.token_ttl", 12*time.Hour)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("source.base_url", "SOURCE_BASE_URL")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Workflow.InvoiceThresholds.AutoApprove > c.Workflow.InvoiceThresholds.Level1 {
		return fmt.Errorf("workflow.invoice_thresholds: auto_approve must not exceed level_1")
	}
	if c.Workflow.ExpenseThresholds.AutoApprove > c.Workflow.ExpenseThresholds.Level1 {
		return fmt.Errorf("workflow.expense_thresholds: auto_approve must not exceed level_1")
	}
	if c.Workflow.DedupEpsilon < 0 {
		return fmt.Errorf("workflow.dedup_epsilon must not be negative")
	}
	if c.Workflow.StandardVATRate < 0 || c.Workflow.StandardVATRate >= 100 {
		return fmt.Errorf("workflow.standard_vat_rate must be a percentage")
	}
	return nil
}
