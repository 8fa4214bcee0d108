// Package config provides configuration management for payout-sync.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Xero       XeroConfig
	Stripe     StripeConfig
	GoCardless GoCardlessConfig
	Sync       SyncConfig
	Debug      bool
}

// XeroConfig represents Xero API configuration.
type XeroConfig struct {
	APIURL       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	TenantID     string
}

// StripeConfig represents Stripe API configuration.
type StripeConfig struct {
	APIURL    string
	SecretKey string
}

// GoCardlessConfig represents GoCardless API configuration.
type GoCardlessConfig struct {
	APIURL      string
	Environment string
	AccessToken string
	MerchantID  string
}

// SyncConfig represents reconciliation settings.
type SyncConfig struct {
	BaseCurrency string
	AccountsFile string
	DBPath       string
	ArchiveDir   string // Optional plain-text copy of submitted journals
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	environment := getEnvOrDefault("GOCARDLESS_ENVIRONMENT", "production")
	if environment != "production" && environment != "sandbox" {
		return nil, fmt.Errorf("invalid GOCARDLESS_ENVIRONMENT: %s (expected production or sandbox)", environment)
	}

	config := &Config{
		Xero: XeroConfig{
			APIURL:       getEnvOrDefault("XERO_API_URL", "https://api.xero.com/api.xro/2.0"),
			TokenURL:     getEnvOrDefault("XERO_TOKEN_URL", "https://identity.xero.com/connect/token"),
			ClientID:     os.Getenv("XERO_CLIENT_ID"),
			ClientSecret: os.Getenv("XERO_CLIENT_SECRET"),
			AccessToken:  os.Getenv("XERO_ACCESS_TOKEN"),
			TenantID:     os.Getenv("XERO_TENANT_ID"),
		},
		Stripe: StripeConfig{
			APIURL:    getEnvOrDefault("STRIPE_API_URL", "https://api.stripe.com"),
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
		GoCardless: GoCardlessConfig{
			APIURL:      os.Getenv("GOCARDLESS_API_URL"),
			Environment: environment,
			AccessToken: os.Getenv("GOCARDLESS_ACCESS_TOKEN"),
			MerchantID:  os.Getenv("GOCARDLESS_MERCHANT_ID"),
		},
		Sync: SyncConfig{
			BaseCurrency: strings.ToUpper(getEnvOrDefault("BASE_CURRENCY", "GBP")),
			AccountsFile: getEnvOrDefault("PAYOUT_SYNC_ACCOUNTS", "config/accounts.yaml"),
			DBPath:       getEnvOrDefault("PAYOUT_SYNC_DB_PATH", ".sync/payout-sync.db"),
			ArchiveDir:   os.Getenv("PAYOUT_SYNC_ARCHIVE_DIR"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "xero":
			switch path[1] {
			case "apiUrl":
				value = c.Xero.APIURL
			case "tenantId":
				value = c.Xero.TenantID
			case "credentials":
				// Either a static token or a client id/secret pair
				if c.Xero.AccessToken != "" || (c.Xero.ClientID != "" && c.Xero.ClientSecret != "") {
					value = "set"
				}
			}
		case "stripe":
			switch path[1] {
			case "apiUrl":
				value = c.Stripe.APIURL
			case "secretKey":
				value = c.Stripe.SecretKey
			}
		case "gocardless":
			switch path[1] {
			case "accessToken":
				value = c.GoCardless.AccessToken
			case "merchantId":
				value = c.GoCardless.MerchantID
			}
		case "sync":
			switch path[1] {
			case "baseCurrency":
				value = c.Sync.BaseCurrency
			case "accountsFile":
				value = c.Sync.AccountsFile
			case "dbPath":
				value = c.Sync.DBPath
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
