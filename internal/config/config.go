package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Sheets    SheetsConfig
	Slack     SlackConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Engine    EngineConfig
	Ads       AdsConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	ResultRange     string
	RunLogRange     string
}

// SlackConfig contains the bot token and target channel for summaries.
type SlackConfig struct {
	BotToken string
	Channel  string
	BaseURL  string
}

// Enabled reports whether a bot token was configured.
func (s SlackConfig) Enabled() bool {
	return s.BotToken != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
	TopN         int
	UrgentDays   int
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables run history.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// EngineConfig holds knobs for data preparation and exports.
type EngineConfig struct {
	ExcludedPrefixes []string
	DailyWorkLimit   int
}

// AdsConfig holds settings for the daily ad performance report. The report is
// disabled unless both the access token and the ad account are set.
type AdsConfig struct {
	AccessToken  string
	AccountID    string
	Channel      string
	BaseURL      string
	CronSchedule string
}

// Enabled reports whether the ad report can run.
func (a AdsConfig) Enabled() bool {
	return a.AccessToken != "" && a.AccountID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	topN, err := getenvInt("NOTIFY_TOP_N", 5)
	if err != nil {
		return nil, err
	}
	urgentDays, err := getenvInt("NOTIFY_URGENT_DAYS", 5)
	if err != nil {
		return nil, err
	}
	dailyLimit, err := getenvInt("DAILY_WORK_LIMIT", 160)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			ResultRange:     getenvWithDefault("RESULT_SHEET_RANGE", "입고추천!A1"),
			RunLogRange:     getenvWithDefault("RUN_LOG_SHEET_RANGE", "실행기록!A1"),
		},
		Slack: SlackConfig{
			BotToken: os.Getenv("SLACK_BOT_TOKEN"),
			Channel:  getenvWithDefault("TARGET_CHANNEL", "#general"),
			BaseURL:  getenvWithDefault("SLACK_BASE_URL", "https://slack.com/api"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("RECOMMEND_CRON_SCHEDULE", "0 9 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Seoul"),
			TopN:         topN,
			UrgentDays:   urgentDays,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "restock"),
		},
		Ads: AdsConfig{
			AccessToken:  os.Getenv("FB_ACCESS_TOKEN"),
			AccountID:    os.Getenv("FB_AD_ACCOUNT_ID"),
			Channel:      os.Getenv("SLACK_CHANNEL_AD"),
			BaseURL:      getenvWithDefault("FB_GRAPH_BASE_URL", "https://graph.facebook.com/v21.0"),
			CronSchedule: getenvWithDefault("AD_REPORT_CRON_SCHEDULE", "0 9 * * *"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		Engine: EngineConfig{
			ExcludedPrefixes: splitList(getenvWithDefault("EXCLUDED_SKU_PREFIXES", "set_fhb_")),
			DailyWorkLimit:   dailyLimit,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
	}

	if c.Slack.Enabled() && c.Slack.Channel == "" {
		return errors.New("TARGET_CHANNEL must be provided when SLACK_BOT_TOKEN is set")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("RECOMMEND_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.Reporting.TopN <= 0 {
		return errors.New("NOTIFY_TOP_N must be positive")
	}

	if c.Engine.DailyWorkLimit <= 0 {
		return errors.New("DAILY_WORK_LIMIT must be positive")
	}

	if c.Ads.Enabled() && c.Ads.CronSchedule == "" {
		return errors.New("AD_REPORT_CRON_SCHEDULE must be provided when FB_ACCESS_TOKEN is set")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
