package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"group-inactivity-bot/security"
)

type Config struct {
	Telegram struct {
		Token      string `yaml:"token"`
		WebhookURL string `yaml:"webhook_url"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"telegram"`

	Inactivity struct {
		ThresholdDays   int  `yaml:"threshold_days"`
		WarningLeadDays int  `yaml:"warning_lead_days"`
		SafeMode        bool `yaml:"safe_mode"`
		SweepHours      int  `yaml:"sweep_hours"`
		CountEdits      bool `yaml:"count_edits"`
	} `yaml:"inactivity"`

	Moderation struct {
		OperatorIDs         []int64 `yaml:"operator_ids"`
		UnknownIsPrivileged bool    `yaml:"unknown_is_privileged"`
	} `yaml:"moderation"`

	Ledger struct {
		Path string `yaml:"path"`
	} `yaml:"ledger"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Load reads the YAML config file when present and then applies environment
// overrides, so env-only deployments work without a config file.
func Load(configPath string) (*Config, error) {
	config := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func defaults() *Config {
	var c Config
	c.Telegram.ListenAddr = ":8080"
	c.Inactivity.ThresholdDays = 14
	c.Inactivity.WarningLeadDays = 2
	c.Inactivity.SafeMode = true // enforcing removal is opt-in
	c.Inactivity.SweepHours = 6
	c.Moderation.UnknownIsPrivileged = true
	c.Ledger.Path = "data/activity.json"
	c.Database.Path = "data/moderation.db"
	c.Logging.Level = "info"
	return &c
}

func (c *Config) applyEnv() {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		c.Telegram.WebhookURL = strings.TrimRight(webhookURL, "/")
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		c.Telegram.ListenAddr = addr
	}
	if days, ok := envInt("INACTIVITY_DAYS"); ok {
		c.Inactivity.ThresholdDays = days
	}
	if days, ok := envInt("WARNING_DAYS"); ok {
		c.Inactivity.WarningLeadDays = days
	}
	if hours, ok := envInt("SWEEP_HOURS"); ok {
		c.Inactivity.SweepHours = hours
	}
	if v := os.Getenv("SAFE_MODE"); v != "" {
		c.Inactivity.SafeMode = v == "1"
	}
	if v := os.Getenv("COUNT_EDITS"); v != "" {
		c.Inactivity.CountEdits = v == "1"
	}
	if v := os.Getenv("UNKNOWN_IS_PRIVILEGED"); v != "" {
		c.Moderation.UnknownIsPrivileged = v == "1"
	}
	if ids := os.Getenv("ADMIN_IDS"); ids != "" {
		c.Moderation.OperatorIDs = parseIDList(ids)
	}
	if path := os.Getenv("LEDGER_PATH"); path != "" {
		c.Ledger.Path = path
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		c.Database.Path = path
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		c.Logging.File = file
	}
}

// parseIDList parses a comma-separated operator list, skipping anything that
// is not a plain numeric Telegram user ID.
func parseIDList(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DryRun reports whether removals are replaced by notices only.
func (c *Config) DryRun() bool {
	return c.Inactivity.SafeMode
}

// IsOperator reports whether the user is globally authorized. With an empty
// operator list authorization falls back to per-chat admin checks.
func (c *Config) IsOperator(userID int64) bool {
	for _, id := range c.Moderation.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	if c.Telegram.WebhookURL != "" {
		if err := security.ValidateBaseURL(c.Telegram.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook URL: %w", err)
		}
	}

	if c.Inactivity.ThresholdDays < 1 {
		return fmt.Errorf("inactivity threshold must be at least 1 day")
	}

	if c.Inactivity.WarningLeadDays < 0 || c.Inactivity.WarningLeadDays >= c.Inactivity.ThresholdDays {
		return fmt.Errorf("warning lead time must be between 0 and threshold-1 days")
	}

	if c.Inactivity.SweepHours < 1 {
		return fmt.Errorf("sweep interval must be at least 1 hour")
	}

	// Validate file paths
	if err := security.ValidateFilePath(c.Ledger.Path); err != nil {
		return fmt.Errorf("invalid ledger path: %w", err)
	}

	if c.Database.Path != "" {
		if err := security.ValidateFilePath(c.Database.Path); err != nil {
			return fmt.Errorf("invalid database path: %w", err)
		}
	}

	if c.Logging.File != "" {
		if err := security.ValidateFilePath(c.Logging.File); err != nil {
			return fmt.Errorf("invalid log file path: %w", err)
		}
	}

	return nil
}
