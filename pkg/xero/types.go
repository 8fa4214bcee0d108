// Package xero provides a Xero Accounting API client for manual journals.
package xero

import (
	"bytes"
	"encoding/json"
)

// ManualJournal represents a manual journal in the Xero Accounting API.
type ManualJournal struct {
	ManualJournalID string        `json:"ManualJournalID,omitempty"`
	Narration       string        `json:"Narration"`
	Status          string        `json:"Status,omitempty"`
	Date            string        `json:"Date,omitempty"` // YYYY-MM-DD on write, /Date(ms)/ on read
	LineAmountTypes string        `json:"LineAmountTypes,omitempty"`
	JournalLines    []JournalLine `json:"JournalLines,omitempty"`
}

// JournalLine represents a line of a manual journal.
type JournalLine struct {
	LineAmount  json.Number `json:"LineAmount"`
	AccountCode string      `json:"AccountCode"`
	TaxType     string      `json:"TaxType,omitempty"`
	Description string      `json:"Description,omitempty"`
}

// ManualJournalsRequest is the body of PUT /ManualJournals.
type ManualJournalsRequest struct {
	ManualJournals []ManualJournal `json:"ManualJournals"`
}

// ManualJournalsResponse represents the response from the /ManualJournals endpoint.
type ManualJournalsResponse struct {
	ManualJournals journalList `json:"ManualJournals"`
}

// journalList decodes either a single journal object or a list of them,
// so callers always see a slice.
type journalList []ManualJournal

func (l *journalList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '{':
		var single ManualJournal
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = journalList{single}
		return nil
	}

	var list []ManualJournal
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// ErrorResponse represents an error response from the Xero API.
type ErrorResponse struct {
	ErrorNumber int    `json:"ErrorNumber"`
	Type        string `json:"Type"`
	Message     string `json:"Message"`
	Elements    []struct {
		ValidationErrors []struct {
			Message string `json:"Message"`
		} `json:"ValidationErrors"`
	} `json:"Elements,omitempty"`
}

// validationMessages flattens the per-element validation errors.
func (e ErrorResponse) validationMessages() []string {
	var msgs []string
	for _, el := range e.Elements {
		for _, v := range el.ValidationErrors {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}
