package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingAccount is returned when an account code a processor needs is not configured.
var ErrMissingAccount = errors.New("missing account configuration")

// Processors with account requirements.
const (
	ProcessorStripe     = "stripe"
	ProcessorGoCardless = "gocardless"
)

// Accounts represents the ledger account codes journals post to.
type Accounts struct {
	SalesAccount         string `yaml:"sales_account"`
	CommissionAccount    string `yaml:"commission_account"`
	StripeAccount        string `yaml:"stripe_account"`
	GoCardlessAccount    string `yaml:"gocardless_account"`
	ReverseChargeTaxType string `yaml:"reverse_charge_tax_type"`
}

// LoadAccounts reads account codes from a YAML file.
func LoadAccounts(path string) (*Accounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	var accounts Accounts
	if err := yaml.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &accounts, nil
}

// Validate checks that every option the processor needs is set.
func (a *Accounts) Validate(processor string) error {
	required := map[string]string{
		"sales_account":      a.SalesAccount,
		"commission_account": a.CommissionAccount,
	}

	switch processor {
	case ProcessorStripe:
		required["stripe_account"] = a.StripeAccount
		required["reverse_charge_tax_type"] = a.ReverseChargeTaxType
	case ProcessorGoCardless:
		required["gocardless_account"] = a.GoCardlessAccount
	default:
		return fmt.Errorf("unknown processor: %s", processor)
	}

	var missing []string
	for _, key := range []string{
		"sales_account",
		"commission_account",
		"stripe_account",
		"gocardless_account",
		"reverse_charge_tax_type",
	} {
		if value, ok := required[key]; ok && value == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w for %s: %v", ErrMissingAccount, processor, missing)
	}
	return nil
}
