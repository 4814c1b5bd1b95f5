// Package alarm keeps BUY/SELL price limits in a flat line file and fires
// them against current prices.
//
// The file holds one "KIND SYMBOL PRICE" record per line. It is read whole
// and rewritten whole; there is no locking since only one invocation runs at
// a time.
package alarm

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	apperrors "stockbar/internal/errors"
	"stockbar/internal/models"
)

// FileStore is the alarm line file.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a store backed by path. The file need not exist.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// List returns every record with trailing newlines stripped. A missing file
// has no records.
func (s *FileStore) List() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading alarm file: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, record(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning alarm file: %w", err)
	}
	return lines, nil
}

// Add appends one record.
func (s *FileStore) Add(kind models.AlarmKind, symbol, price string) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening alarm file: %w", err)
	}
	line := models.Alarm{Kind: kind, Symbol: symbol, Price: price}.Line()
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing alarm: %w", err)
	}
	return f.Close()
}

// Remove rewrites the file without every line equal to line. Removing a line
// that is not there rewrites the file unchanged, so Remove is idempotent.
func (s *FileStore) Remove(line string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading alarm file: %w", err)
	}

	var kept bytes.Buffer
	for _, raw := range strings.SplitAfter(string(data), "\n") {
		if raw == "" {
			continue
		}
		if record(raw) == line {
			continue
		}
		kept.WriteString(raw)
	}

	if err := os.WriteFile(s.path, kept.Bytes(), 0644); err != nil {
		return fmt.Errorf("rewriting alarm file: %w", err)
	}
	return nil
}

// record strips the line terminator, LF or CRLF, from a raw file line.
func record(raw string) string {
	return strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
}

// Clear truncates the file.
func (s *FileStore) Clear() error {
	if err := os.WriteFile(s.path, nil, 0644); err != nil {
		return fmt.Errorf("clearing alarm file: %w", err)
	}
	return nil
}

// Alarms parses the stored records, skipping lines that do not parse.
func (s *FileStore) Alarms() ([]models.Alarm, error) {
	lines, err := s.List()
	if err != nil {
		return nil, err
	}

	alarms := make([]models.Alarm, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := models.ParseAlarm(line)
		if err != nil {
			s.logger.Warn().Err(err).Str("record", line).Msg("Skipping malformed alarm")
			continue
		}
		alarms = append(alarms, a)
	}
	return alarms, nil
}

// Up to four fractional digits for sub-dollar prices; the leading digit is
// optional (".5").
var pricePattern = regexp.MustCompile(`^\d*(\.\d{1,4})?$`)

// ValidatePrice checks a user-entered limit.
func ValidatePrice(price string) error {
	if price == "" || !pricePattern.MatchString(price) {
		return apperrors.NewValidationError("price", price,
			"valid values are decimals with up to 4 fractional digits, e.g. 25.70 or 0.0125")
	}
	return nil
}
