// Package domain contains the records shared by the condition sources, the
// reconciliation service and the report renderers.
//
// A condition is one tumour diagnosis as exported to the cancer registry (LKR) and
// to the research data platform (OPAL). Both exports are expected to carry the same
// conditions with the same ICD-10 codes; differences point at export or mapping errors.
package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// ConditionRecord is one diagnosis entry as read from a CSV file or the database.
// ConditionID is the join key across sources and is not guaranteed to be unique
// within one source.
type ConditionRecord struct {
	PatientID     string `json:"pat_id,omitempty" yaml:"pat_id,omitempty" db:"patient_id"`
	ConditionID   string `json:"cond_id" yaml:"cond_id" db:"condition_id"`
	DiagnosisDate string `json:"conditiondate" yaml:"conditiondate" db:"diagnosis_date"`
	ICD10Code     string `json:"condcodingcode" yaml:"condcodingcode" db:"icd10_code"`

	// SchemaVersion is the ADT-GEKID schema version of the originating export, if known.
	SchemaVersion string `json:"schema_version,omitempty" yaml:"schema_version,omitempty" db:"schema_version"`
}

// HasPatientID reports whether the record carries a patient id.
func (r ConditionRecord) HasPatientID() bool {
	return r.PatientID != ""
}

// Icd10GroupSize is the number of conditions in one ICD-10 group and schema version.
type Icd10GroupSize struct {
	Name          string `json:"name" yaml:"name"`
	SchemaVersion string `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	Size          int    `json:"size" yaml:"size"`
}

// StoredProtocol is one export row as stored by Onkostar: the row key and the
// protocol text that was sent to the registry.
type StoredProtocol struct {
	Key     string `json:"key" yaml:"key" db:"id"`
	Content string `json:"-" yaml:"-" db:"xml_daten"`
}

// ExportRow is one stored export of a report together with the tumour it belongs to.
type ExportRow struct {
	ID        string `db:"id"`
	PatientID string `db:"patient_id"`
	TumorID   string `db:"tumor_id"`
	Version   int    `db:"versionsnummer"`
	Content   string `db:"xml_daten"`
}

// QueryFilter selects the conditions read from the database.
type QueryFilter struct {
	Year               string
	IgnoreExportsSince string
	IncludeExtern      bool
	IncludeHistoZyto   bool
	WithPatientID      bool
}

var (
	yearPattern = regexp.MustCompile(`^\d{4}$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validate checks the year and date formats of the filter.
func (f QueryFilter) Validate() error {
	if !yearPattern.MatchString(f.Year) {
		return fmt.Errorf("%w: %w", ErrInvalidYear, NewValidationError("year", "must have four digits", f.Year))
	}
	if !datePattern.MatchString(f.IgnoreExportsSince) {
		return NewValidationError("ignore_exports_since", "must be formatted as yyyy-mm-dd", f.IgnoreExportsSince)
	}
	return nil
}

// Sentinel errors
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidYear = errors.New("invalid diagnosis year")
)
