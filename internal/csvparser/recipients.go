package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

const DefaultMaxRows = 1000

// ReasonRowLimit marks valid rows dropped because the batch was full.
const ReasonRowLimit = "row limit exceeded"

var (
	ErrNoEmailColumn = errors.New("csv must contain an Email column")
	ErrNoRecipients  = errors.New("csv must contain at least one valid recipient")
)

// Recipient is one addressee of a batch. Fields holds every other column
// (header -> value) for template placeholders.
type Recipient struct {
	Email  string
	Fields map[string]string
}

// SkippedRow explains why a data row produced no recipient.
// Line is 1-based and counts the header.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Batch struct {
	Recipients []Recipient
	Skipped    []SkippedRow
}

var validate = validator.New()

// ParseRecipients reads a CSV whose header has an "Email" column
// (case-insensitive). Malformed, invalid and duplicate rows are skipped
// and reported. At most maxRows recipients are returned; valid rows past
// the cap are reported as skipped.
func ParseRecipients(r io.Reader, maxRows int) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	emailIdx := -1
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = strings.TrimSpace(h)
		if strings.EqualFold(names[i], "email") {
			emailIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, ErrNoEmailColumn
	}

	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	batch := &Batch{}
	seen := make(map[string]struct{})
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		if len(record) != len(names) {
			batch.skip(line, "column count does not match header")
			continue
		}

		addr := strings.TrimSpace(record[emailIdx])
		if addr == "" {
			batch.skip(line, "empty email")
			continue
		}
		if validate.Var(addr, "email") != nil {
			batch.skip(line, "invalid email")
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			batch.skip(line, "duplicate email")
			continue
		}
		seen[key] = struct{}{}

		if len(batch.Recipients) >= maxRows {
			batch.skip(line, ReasonRowLimit)
			continue
		}

		fields := make(map[string]string, len(names)-1)
		for i, v := range record {
			if i == emailIdx || names[i] == "" {
				continue
			}
			fields[names[i]] = strings.TrimSpace(v)
		}

		batch.Recipients = append(batch.Recipients, Recipient{Email: addr, Fields: fields})
	}

	if len(batch.Recipients) == 0 {
		return nil, ErrNoRecipients
	}

	return batch, nil
}

func (b *Batch) skip(line int, reason string) {
	b.Skipped = append(b.Skipped, SkippedRow{Line: line, Reason: reason})
}
