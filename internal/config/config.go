package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode string
	Port    string
	LINE    LINEConfig
	Sheets  SheetsConfig
	Forms   FormsConfig
	Admin   AdminConfig
}

// LINEConfig holds Messaging API credentials
type LINEConfig struct {
	ChannelSecret      string
	ChannelAccessToken string
}

// SheetsConfig holds the Google Sheets backing-store configuration
type SheetsConfig struct {
	ServiceAccountEmail string
	PrivateKeyPEM       string
	SpreadsheetID       string
	SchoolYear          string // ROC year prefixing the sheet tab names
}

// FormsConfig holds the Google Form ids used as logging sinks
type FormsConfig struct {
	SignInFormID     string
	SuggestionFormID string
}

// AdminConfig holds the admin REST API credentials
type AdminConfig struct {
	TokenHash string // bcrypt hash of the bearer token
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode: appMode,
		Port:    getEnv("PORT", "3000"),
		LINE: LINEConfig{
			ChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
			ChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		},
		Sheets: SheetsConfig{
			ServiceAccountEmail: os.Getenv("GOOGLE_CLIENT_EMAIL"),
			PrivateKeyPEM:       os.Getenv("GOOGLE_PRIVATE_KEY"),
			SpreadsheetID:       os.Getenv("SPREADSHEET_ID"),
			SchoolYear:          getEnv("SCHOOL_YEAR", "113"),
		},
		Forms: FormsConfig{
			SignInFormID:     os.Getenv("SIGNIN_FORM_ID"),
			SuggestionFormID: os.Getenv("SUGGESTION_FORM_ID"),
		},
		Admin: AdminConfig{
			TokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		},
	}

	if config.LINE.ChannelSecret == "" || config.LINE.ChannelAccessToken == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN are required")
	}
	if config.Sheets.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// AssetSheetName returns the tab holding the asset rows for the school year.
func (c *Config) AssetSheetName() string {
	return c.Sheets.SchoolYear + "社產清單"
}

// MemberSheetName returns the tab holding the member rows for the school year.
func (c *Config) MemberSheetName() string {
	return c.Sheets.SchoolYear + "社員清單"
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}
