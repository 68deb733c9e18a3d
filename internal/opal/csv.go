// Package opal reads and writes condition tables in the CSV layout used by the
// research data platform: pat_id, cond_id, conditiondate, condcodingcode.
package opal

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
)

// Column names
const (
	ColumnPatientID     = "pat_id"
	ColumnConditionID   = "cond_id"
	ColumnDiagnosisDate = "conditiondate"
	ColumnICD10Code     = "condcodingcode"
)

// Header is the column order of written files
var Header = []string{ColumnPatientID, ColumnConditionID, ColumnDiagnosisDate, ColumnICD10Code}

// ErrMissingColumn is returned when a required column is not part of the header
var ErrMissingColumn = errors.New("missing column")

// File reads and writes condition CSV files
type File struct {
	// Delimiter used when writing. Reading detects ',' or ';' from the header.
	Delimiter rune
	log       *logrus.Logger
}

// NewFile creates a CSV file handler. Spreadsheet files use ';' as delimiter.
func NewFile(spreadsheet bool, logger *logrus.Logger) *File {
	delimiter := ','
	if spreadsheet {
		delimiter = ';'
	}
	return &File{Delimiter: delimiter, log: logger}
}

// ReadConditions reads all conditions of the file at path
func (f *File) ReadConditions(path string) ([]domain.ConditionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	records, err := f.Read(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// Read reads conditions from r. Rows without condition id or ICD-10 code are
// skipped; the columns pat_id and conditiondate are optional.
func (f *File) Read(r io.Reader) ([]domain.ConditionRecord, error) {
	br := bufio.NewReader(r)
	firstLine, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(string(firstLine))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnConditionID)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	for _, required := range []string{ColumnConditionID, ColumnICD10Code} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	value := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]domain.ConditionRecord, 0)
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, err
		}

		record := domain.ConditionRecord{
			PatientID:     value(row, ColumnPatientID),
			ConditionID:   value(row, ColumnConditionID),
			DiagnosisDate: value(row, ColumnDiagnosisDate),
			ICD10Code:     value(row, ColumnICD10Code),
		}
		if record.ConditionID == "" || record.ICD10Code == "" {
			skipped++
			continue
		}
		records = append(records, record)
	}

	if skipped > 0 {
		f.log.WithFields(logrus.Fields{
			"skipped": skipped,
			"read":    len(records),
		}).Warn("Skipped incomplete CSV rows")
	}

	return records, nil
}

// WriteConditions writes records to a new file at path, replacing an existing file
func (f *File) WriteConditions(path string, records []domain.ConditionRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := f.Write(file, records); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

// Write writes the header and one row per record to w
func (f *File) Write(w io.Writer, records []domain.ConditionRecord) error {
	writer := csv.NewWriter(w)
	if f.Delimiter != 0 {
		writer.Comma = f.Delimiter
	}

	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.PatientID, r.ConditionID, r.DiagnosisDate, r.ICD10Code}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// detectDelimiter picks ';' when the header line contains more semicolons than commas
func detectDelimiter(text string) rune {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	if strings.Count(text, ";") > strings.Count(text, ",") {
		return ';'
	}
	return ','
}
