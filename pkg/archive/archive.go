// Package archive keeps a plain-text copy of submitted journals in monthly
// files under a root directory.
//
// Layout: {root}/{YYYY}/{YYYY-MM}.journal
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/payout-sync/pkg/journal"
)

const fileExt = ".journal"

// Archive appends journals to monthly files.
type Archive struct {
	root string
	now  func() time.Time
}

// New creates an Archive rooted at dir.
func New(dir string) *Archive {
	return &Archive{root: dir, now: time.Now}
}

// Root returns the archive root directory.
func (a *Archive) Root() string {
	return a.root
}

// MonthFilePath returns the file path for a month.
// yearMonth should be in YYYY-MM format.
func (a *Archive) MonthFilePath(yearMonth string) (string, error) {
	year, month, ok := strings.Cut(yearMonth, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}
	return filepath.Join(a.root, year, yearMonth+fileExt), nil
}

// Append writes the entry to the file of the month it is dated in, preceded
// by an optional comment line.
func (a *Archive) Append(entry journal.Entry, comment string) error {
	yearMonth := entry.Date.Format("2006-01")
	if err := a.EnsureMonthFile(yearMonth); err != nil {
		return err
	}

	filePath, err := a.MonthFilePath(yearMonth)
	if err != nil {
		return err
	}

	var content strings.Builder
	if comment != "" {
		fmt.Fprintf(&content, "; %s\n", comment)
	}
	content.WriteString(journal.Format(entry))
	content.WriteString("\n")

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// ReadMonthFile returns the content of a monthly file, or "" if it doesn't exist.
func (a *Archive) ReadMonthFile(yearMonth string) (string, error) {
	filePath, err := a.MonthFilePath(yearMonth)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// EnsureMonthFile creates the monthly file with its header if it is missing.
func (a *Archive) EnsureMonthFile(yearMonth string) error {
	filePath, err := a.MonthFilePath(yearMonth)
	if err != nil {
		return err
	}

	if _, err := os.Stat(filePath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(filePath), err)
	}

	header := fmt.Sprintf("; Payout journals for %s\n; Created at %s\n\n", yearMonth, a.now().Format(time.RFC3339))
	if err := os.WriteFile(filePath, []byte(header), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
