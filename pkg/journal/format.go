package journal

import (
	"fmt"
	"strings"
)

// Format renders an entry as plain text for dry runs and logs.
func Format(e Entry) string {
	var sb strings.Builder

	// Entry header
	sb.WriteString(e.Date.Format("2006-01-02"))
	sb.WriteString(fmt.Sprintf(" %s \"%s\"\n", e.Status, e.Narration))

	// Lines, amounts right-aligned after the account code
	for _, line := range e.Lines {
		amount := FormatAmount(line.Amount)

		sb.WriteString("  ")
		sb.WriteString(line.AccountCode)
		spaces := max(1, 24-len(line.AccountCode)-len(amount))
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(amount)

		if line.TaxType != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", line.TaxType))
		}
		if line.Description != "" {
			sb.WriteString(fmt.Sprintf(" ; %s", line.Description))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
