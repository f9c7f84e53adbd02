package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	MAM struct {
		BaseURL       string `yaml:"base_url"`
		UserID        string `yaml:"user_id"`
		SessionCookie string `yaml:"session_cookie"`
		DonateAmount  int    `yaml:"donate_amount"`
	} `yaml:"mam"`
	Automation struct {
		DonateVault bool `yaml:"donate_vault"`
		BuyVIP      bool `yaml:"buy_vip"`
		BuyCredit   bool `yaml:"buy_credit"`
	} `yaml:"automation"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
		PollCron  string `yaml:"poll_cron"`
	} `yaml:"schedule"`
	State struct {
		File string `yaml:"file"`
	} `yaml:"state"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MAM_BASE_URL"); v != "" {
		cfg.MAM.BaseURL = v
	}
	if v := os.Getenv("MAM_USER_ID"); v != "" {
		cfg.MAM.UserID = v
	}
	if v := os.Getenv("MAM_SESSION_COOKIE"); v != "" {
		cfg.MAM.SessionCookie = v
	}
	if v := os.Getenv("MAM_DONATE_AMOUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MAM.DonateAmount = n
		}
	}
	if v := os.Getenv("AUTO_DONATE_VAULT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Automation.DonateVault = b
		}
	}
	if v := os.Getenv("AUTO_BUY_VIP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Automation.BuyVIP = b
		}
	}
	if v := os.Getenv("AUTO_BUY_CREDIT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Automation.BuyCredit = b
		}
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_POLL"); v != "" {
		cfg.Schedule.PollCron = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		cfg.State.File = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.MAM.BaseURL == "" {
		cfg.MAM.BaseURL = "https://www.myanonamouse.net"
	}
	if cfg.MAM.DonateAmount == 0 {
		cfg.MAM.DonateAmount = 2000
	}
	if cfg.Schedule.DailyCron == "" {
		// 02:00 UTC daily
		cfg.Schedule.DailyCron = "0 0 2 * * *"
	}
	if cfg.Schedule.PollCron == "" {
		cfg.Schedule.PollCron = "0 */15 * * * *"
	}
	if cfg.State.File == "" {
		cfg.State.File = "data/mam_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/mam_manager.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.MAM.UserID == "" {
		return fmt.Errorf("mam.user_id is required")
	}
	if c.MAM.SessionCookie == "" {
		return fmt.Errorf("mam.session_cookie is required")
	}
	if c.MAM.DonateAmount < 100 || c.MAM.DonateAmount > 2000 || c.MAM.DonateAmount%100 != 0 {
		return fmt.Errorf("mam.donate_amount must be 100-2000 in steps of 100")
	}
	return nil
}
