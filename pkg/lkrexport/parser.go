// Package lkrexport extracts patient and report (Meldung) fragments from LKR export
// protocols and the export rows stored by Onkostar.
//
// Extraction is intentionally shallow: the two wrapper elements are located with lazy
// regular expressions and handled as text ranges. Nesting, attributes other than
// Meldung_ID and character encodings are not validated.
package lkrexport

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
)

// Extraction patterns
var (
	patientPattern = regexp.MustCompile(`(?s)<Patient>.*?</Patient>`)
	meldungPattern = regexp.MustCompile(`(?s)<Meldung\b.*?</Meldung>`)

	openingTagPattern    = regexp.MustCompile(`^<Meldung\b[^>]*>`)
	meldungIDPattern     = regexp.MustCompile(`\bMeldung_ID="(.*?)"`)
	icd10Pattern         = regexp.MustCompile(`(?s)<Primaertumor_ICD_Code>(.*?)</Primaertumor_ICD_Code>`)
	diagnosisDatePattern = regexp.MustCompile(`(?s)<Diagnosedatum>\s*(\d{2})\.(\d{2})\.(\d{4})\s*</Diagnosedatum>`)
	schemaVersionPattern = regexp.MustCompile(`\bSchema_Version="(.*?)"`)
)

// ErrNoPatients is returned when a document contains no <Patient> element.
var ErrNoPatients = errors.New("no patient entries found in export protocol")

// Document is a parsed export protocol.
type Document struct {
	patients []*Patient
}

// Parse locates all patient regions in content. A document without any patient
// region is an error, not an empty result.
func Parse(content string) (*Document, error) {
	matches := patientPattern.FindAllString(content, -1)
	if len(matches) == 0 {
		return nil, ErrNoPatients
	}

	patients := make([]*Patient, 0, len(matches))
	for _, m := range matches {
		patients = append(patients, &Patient{raw: m})
	}

	return &Document{patients: patients}, nil
}

// ParseFile reads and parses the export protocol at path.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export protocol: %w", err)
	}

	doc, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing export protocol %s: %w", path, err)
	}
	return doc, nil
}

// Patients returns the patient regions in document order.
func (d *Document) Patients() []*Patient {
	return d.patients
}

// Meldungen returns the reports of all patients in document order.
func (d *Document) Meldungen() []Meldung {
	var result []Meldung
	for _, p := range d.patients {
		result = append(result, p.Meldungen()...)
	}
	return result
}

// Patient is the text of one <Patient> element including its tags.
type Patient struct {
	raw string

	once      sync.Once
	meldungen []Meldung
}

// NewPatient wraps raw patient text without searching a surrounding document.
func NewPatient(raw string) *Patient {
	return &Patient{raw: raw}
}

// Raw returns the patient text as found in the document.
func (p *Patient) Raw() string {
	return p.raw
}

// Meldungen returns the report regions inside the patient. Reports are extracted on
// first access; a patient without reports yields an empty slice.
func (p *Patient) Meldungen() []Meldung {
	p.once.Do(func() {
		matches := meldungPattern.FindAllString(p.raw, -1)
		p.meldungen = make([]Meldung, 0, len(matches))
		for _, m := range matches {
			p.meldungen = append(p.meldungen, Meldung{raw: m})
		}
	})
	return p.meldungen
}

// SchemaVersion returns the value of the first Schema_Version attribute in content.
// Stored export rows carry it on their ADT_GEKID root element.
func SchemaVersion(content string) (string, bool) {
	m := schemaVersionPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}
