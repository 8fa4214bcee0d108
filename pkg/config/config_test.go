package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromEnvFile(t *testing.T) {
	// godotenv does not override variables that are already set
	for _, key := range []string{"XERO_TENANT_ID", "STRIPE_SECRET_KEY", "BASE_CURRENCY", "GOCARDLESS_ENVIRONMENT", "XERO_API_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	envFile := writeFile(t, ".env", "XERO_TENANT_ID=tenant-1\nSTRIPE_SECRET_KEY=sk_test_1\nBASE_CURRENCY=gbp\nGOCARDLESS_ENVIRONMENT=sandbox\n")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", cfg.Xero.TenantID)
	assert.Equal(t, "sk_test_1", cfg.Stripe.SecretKey)
	assert.Equal(t, "GBP", cfg.Sync.BaseCurrency)
	assert.Equal(t, "sandbox", cfg.GoCardless.Environment)
	assert.Equal(t, "https://api.xero.com/api.xro/2.0", cfg.Xero.APIURL)
	assert.Equal(t, "config/accounts.yaml", cfg.Sync.AccountsFile)
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("GOCARDLESS_ENVIRONMENT", "staging")

	_, err := Load(writeFile(t, ".env", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOCARDLESS_ENVIRONMENT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Xero:   XeroConfig{APIURL: "https://api.xero.com", ClientID: "id"},
		Stripe: StripeConfig{SecretKey: "sk"},
	}

	err := cfg.Validate(
		[]string{"xero", "apiUrl"},
		[]string{"xero", "tenantId"},
		[]string{"xero", "credentials"},
		[]string{"stripe", "secretKey"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xero.tenantId")
	assert.Contains(t, err.Error(), "xero.credentials")
	assert.NotContains(t, err.Error(), "stripe.secretKey")

	cfg.Xero.TenantID = "tenant"
	cfg.Xero.AccessToken = "token"
	assert.NoError(t, cfg.Validate([]string{"xero", "tenantId"}, []string{"xero", "credentials"}))
}

func TestLoadAccounts(t *testing.T) {
	path := writeFile(t, "accounts.yaml", `
sales_account: "200"
commission_account: "404"
stripe_account: "090"
gocardless_account: "091"
reverse_charge_tax_type: ECZROUTPUTSERVICES
`)

	accounts, err := LoadAccounts(path)
	require.NoError(t, err)

	assert.Equal(t, "200", accounts.SalesAccount)
	assert.Equal(t, "404", accounts.CommissionAccount)
	assert.Equal(t, "090", accounts.StripeAccount)
	assert.Equal(t, "091", accounts.GoCardlessAccount)
	assert.Equal(t, "ECZROUTPUTSERVICES", accounts.ReverseChargeTaxType)
	assert.NoError(t, accounts.Validate(ProcessorStripe))
	assert.NoError(t, accounts.Validate(ProcessorGoCardless))
}

func TestAccountsValidate(t *testing.T) {
	tests := []struct {
		name      string
		accounts  Accounts
		processor string
		missing   string
	}{
		{
			name:      "stripe needs reverse charge tax type",
			accounts:  Accounts{SalesAccount: "200", CommissionAccount: "404", StripeAccount: "090"},
			processor: ProcessorStripe,
			missing:   "reverse_charge_tax_type",
		},
		{
			name:      "gocardless needs clearing account",
			accounts:  Accounts{SalesAccount: "200", CommissionAccount: "404"},
			processor: ProcessorGoCardless,
			missing:   "gocardless_account",
		},
		{
			name:      "sales account always required",
			accounts:  Accounts{CommissionAccount: "404", GoCardlessAccount: "091"},
			processor: ProcessorGoCardless,
			missing:   "sales_account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.accounts.Validate(tt.processor)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingAccount))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}

	// Stripe options are not required for GoCardless
	gc := Accounts{SalesAccount: "200", CommissionAccount: "404", GoCardlessAccount: "091"}
	assert.NoError(t, gc.Validate(ProcessorGoCardless))
}

func TestLoadAccountsMissingFile(t *testing.T) {
	_, err := LoadAccounts(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
