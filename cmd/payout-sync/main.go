// Package main is the entry point for payout-sync CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/payout-sync/cmd/payout-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
