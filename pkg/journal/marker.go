package journal

import (
	"fmt"
	"regexp"
)

// Marker embeds a payout identifier in a narration and extracts it again.
//
// The narration is the only link between a payout and its journal in the
// ledger, so a marker's prefix and pattern must never change once journals
// have been posted with it.
type Marker struct {
	prefix  string
	pattern *regexp.Regexp
}

// NewMarker creates a marker that writes "<prefix> <id>" and extracts ids
// matching idPattern after the same prefix.
func NewMarker(prefix, idPattern string) *Marker {
	return &Marker{
		prefix:  prefix,
		pattern: regexp.MustCompile(regexp.QuoteMeta(prefix) + ` (` + idPattern + `)`),
	}
}

// Narration returns the narration for a payout id.
func (m *Marker) Narration(id string) string {
	return fmt.Sprintf("%s %s", m.prefix, id)
}

// Extract returns the payout id embedded in a narration.
func (m *Marker) Extract(narration string) (string, bool) {
	match := m.pattern.FindStringSubmatch(narration)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// String returns the extraction pattern.
func (m *Marker) String() string {
	return m.pattern.String()
}
