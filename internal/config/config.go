// Package config provides configuration loading for courier: defaults, an
// optional YAML file, then environment variables. Command-line flags are
// applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSubjectPrefix is the fixed part of every report subject.
const DefaultSubjectPrefix = "Linux应急响应报告"

// Config holds the complete application configuration.
type Config struct {
	Provider string        `yaml:"provider"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	SES      SESConfig     `yaml:"ses"`
	Report   ReportConfig  `yaml:"report"`
	Output   OutputConfig  `yaml:"output"`
	Logging  LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds SMTP relay configuration.
type SMTPConfig struct {
	Server             string        `yaml:"server"`
	Port               int           `yaml:"port"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Timeout            time.Duration `yaml:"timeout"`
	CAFile             string        `yaml:"ca_file"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// ReportConfig controls how the report message is composed.
type ReportConfig struct {
	SubjectPrefix string `yaml:"subject_prefix"`
}

// OutputConfig locates the outcome log and the optional message archive.
type OutputConfig struct {
	Dir        string `yaml:"dir"`
	LogFile    string `yaml:"log_file"`
	ArchiveDir string `yaml:"archive_dir"`
}

// LoggingConfig holds diagnostic logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SESConfigured returns true if a region is set for SES.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// Validate checks values that cannot be fixed up by defaults.
func (c *Config) Validate() error {
	switch c.Provider {
	case "smtp", "ses", "stdout":
	default:
		return fmt.Errorf("unknown provider %q (want smtp, ses or stdout)", c.Provider)
	}
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port %d", c.SMTP.Port)
	}
	if c.Provider == "ses" && !c.SESConfigured() {
		return fmt.Errorf("ses provider selected but SES_REGION is not set")
	}
	return nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Provider = "smtp"
	c.SMTP.Port = 465
	c.Report.SubjectPrefix = DefaultSubjectPrefix
	c.Output.Dir = "output"
	c.Output.LogFile = "courier.log"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() error {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.SMTP.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		c.SMTP.Port = port
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_TIMEOUT %q: %w", v, err)
		}
		c.SMTP.Timeout = d
	}
	if v := os.Getenv("SMTP_CA_FILE"); v != "" {
		c.SMTP.CAFile = v
	}
	if v := os.Getenv("SMTP_INSECURE_SKIP_VERIFY"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_INSECURE_SKIP_VERIFY %q: %w", v, err)
		}
		c.SMTP.InsecureSkipVerify = skip
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("SUBJECT_PREFIX"); v != "" {
		c.Report.SubjectPrefix = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		c.Output.ArchiveDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}
