package emailsend

import (
	"fmt"
	"time"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/validation"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Provider      string        `mapstructure:"provider"`
	DefaultFrom   string        `mapstructure:"default_from"`
	SMTPHost      string        `mapstructure:"smtp_host"`
	SMTPPort      int           `mapstructure:"smtp_port"`
	SMTPUsername  string        `mapstructure:"smtp_username"`
	SMTPPassword  string        `mapstructure:"smtp_password"`
	UseTLS        bool          `mapstructure:"use_tls"`
	AWSRegion     string        `mapstructure:"aws_region"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Provider:      config.EmailProviderMock,
		DefaultFrom:   "helpdesk@example.com",
		SMTPPort:      587,
		UseTLS:        true,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.DefaultFrom != "" && !validation.ValidateEmail(c.DefaultFrom) {
		return fmt.Errorf("default_from %q is not a valid email address", c.DefaultFrom)
	}

	switch c.Provider {
	case config.EmailProviderMock:
	case config.EmailProviderSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required")
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			return fmt.Errorf("smtp_port must be between 1 and 65535")
		}
		if c.DefaultFrom == "" {
			return fmt.Errorf("default_from email is required")
		}
	case config.EmailProviderSES:
		if c.AWSRegion == "" {
			return fmt.Errorf("aws_region is required for ses")
		}
		if c.DefaultFrom == "" {
			return fmt.Errorf("default_from email is required")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Provider)
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}

	n := appConfig.Notifications
	if n.Email.Provider != "" {
		cfg.Provider = n.Email.Provider
	}
	if n.Email.FromEmail != "" {
		cfg.DefaultFrom = n.Email.FromEmail
	}
	cfg.SMTPHost = n.SMTP.Host
	if n.SMTP.Port > 0 {
		cfg.SMTPPort = n.SMTP.Port
	}
	cfg.SMTPUsername = n.SMTP.Username
	cfg.SMTPPassword = n.SMTP.Password
	cfg.UseTLS = n.SMTP.UseTLS
	cfg.AWSRegion = n.AWS.Region

	return cfg
}
