package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/pkg/lkrexport"
)

// KeyPolicy selects which report wins when several reports of one source
// carry the same Meldung_ID.
type KeyPolicy int

const (
	// LastWins keeps the last report in input order
	LastWins KeyPolicy = iota
	// FirstWins keeps the first report in input order
	FirstWins
)

// String returns the policy name
func (p KeyPolicy) String() string {
	if p == FirstWins {
		return "first"
	}
	return "last"
}

// Fragment identifies one report of either source
type Fragment struct {
	ID          string `json:"id" yaml:"id"`
	DatabaseKey string `json:"database_key,omitempty" yaml:"database_key,omitempty"`
	ICD10Code   string `json:"icd10_code,omitempty" yaml:"icd10_code,omitempty"`
	// StorageKey is the key of the export row the report was found in.
	StorageKey string `json:"storage_key,omitempty" yaml:"storage_key,omitempty"`

	canonical string
}

// ContentMismatch is a report whose canonical text differs between the
// export protocol and the stored export row.
type ContentMismatch struct {
	Document Fragment `json:"document" yaml:"document"`
	Database Fragment `json:"database" yaml:"database"`
}

// CodeChanged reports whether the ICD-10 code differs as well
func (m ContentMismatch) CodeChanged() bool {
	return m.Document.ICD10Code != m.Database.ICD10Code
}

// DuplicateRow is an export row containing more than one report
type DuplicateRow struct {
	Key       string   `json:"key" yaml:"key"`
	Fragments int      `json:"fragments" yaml:"fragments"`
	IDs       []string `json:"ids" yaml:"ids"`
}

// ProtocolComparison is the result of reconciling an export protocol with
// the stored export rows.
type ProtocolComparison struct {
	DocumentFragments    int               `json:"document_fragments" yaml:"document_fragments"`
	DatabaseFragments    int               `json:"database_fragments" yaml:"database_fragments"`
	MissingInDocument    []Fragment        `json:"missing_in_document" yaml:"missing_in_document"`
	MissingInDatabase    []Fragment        `json:"missing_in_database" yaml:"missing_in_database"`
	DuplicateStorageRows []DuplicateRow    `json:"duplicate_storage_rows" yaml:"duplicate_storage_rows"`
	ContentMismatches    []ContentMismatch `json:"content_mismatches" yaml:"content_mismatches"`
	// SkippedRows lists the keys of stored rows that could not be parsed
	SkippedRows []string `json:"skipped_rows" yaml:"skipped_rows"`
}

// Consistent reports whether both sources carry the same reports with the same content
func (c *ProtocolComparison) Consistent() bool {
	return len(c.MissingInDocument) == 0 && len(c.MissingInDatabase) == 0 &&
		len(c.DuplicateStorageRows) == 0 && len(c.ContentMismatches) == 0
}

// ReconcileProtocol compares the reports of an export protocol with the reports
// of the stored export rows. Only a document that cannot be parsed is an error;
// stored rows that cannot be parsed are listed in SkippedRows.
func ReconcileProtocol(document string, stored []domain.StoredProtocol, policy KeyPolicy) (*ProtocolComparison, error) {
	doc, err := lkrexport.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("parsing export protocol: %w", err)
	}

	result := &ProtocolComparison{
		MissingInDocument:    make([]Fragment, 0),
		MissingInDatabase:    make([]Fragment, 0),
		DuplicateStorageRows: make([]DuplicateRow, 0),
		ContentMismatches:    make([]ContentMismatch, 0),
		SkippedRows:          make([]string, 0),
	}

	database := newFragmentIndex(policy)
	for _, row := range stored {
		rowDoc, err := lkrexport.Parse(row.Content)
		if err != nil {
			result.SkippedRows = append(result.SkippedRows, row.Key)
			continue
		}

		meldungen := rowDoc.Meldungen()
		if len(meldungen) > 1 {
			result.DuplicateStorageRows = append(result.DuplicateStorageRows, DuplicateRow{
				Key:       row.Key,
				Fragments: len(meldungen),
				IDs:       fragmentIDs(meldungen),
			})
		}
		for _, m := range meldungen {
			database.add(m, row.Key)
		}
	}

	documentIndex := newFragmentIndex(policy)
	for _, m := range doc.Meldungen() {
		documentIndex.add(m, "")
	}

	result.DocumentFragments = len(documentIndex.order)
	result.DatabaseFragments = len(database.order)

	for _, id := range database.order {
		if _, ok := documentIndex.fragments[id]; !ok {
			result.MissingInDocument = append(result.MissingInDocument, database.fragments[id])
		}
	}

	for _, id := range documentIndex.order {
		fromDocument := documentIndex.fragments[id]
		fromDatabase, ok := database.fragments[id]
		if !ok {
			result.MissingInDatabase = append(result.MissingInDatabase, fromDocument)
			continue
		}
		if fromDocument.canonical != fromDatabase.canonical {
			result.ContentMismatches = append(result.ContentMismatches, ContentMismatch{
				Document: fromDocument,
				Database: fromDatabase,
			})
		}
	}

	sortFragments(result.MissingInDocument)
	sortFragments(result.MissingInDatabase)
	sort.SliceStable(result.ContentMismatches, func(i, j int) bool {
		return lessFragment(result.ContentMismatches[i].Document, result.ContentMismatches[j].Document)
	})

	return result, nil
}

// fragmentIndex maps Meldung_IDs to reports. order keeps the first occurrence
// of every id.
type fragmentIndex struct {
	policy    KeyPolicy
	fragments map[string]Fragment
	order     []string
}

func newFragmentIndex(policy KeyPolicy) *fragmentIndex {
	return &fragmentIndex{
		policy:    policy,
		fragments: make(map[string]Fragment),
	}
}

// add indexes a report. Reports without Meldung_ID are ignored.
func (idx *fragmentIndex) add(m lkrexport.Meldung, storageKey string) {
	id, ok := m.ID()
	if !ok {
		return
	}

	if _, exists := idx.fragments[id]; exists {
		if idx.policy == FirstWins {
			return
		}
	} else {
		idx.order = append(idx.order, id)
	}

	databaseKey, _ := m.DatabaseID()
	code, _ := m.ICD10()
	idx.fragments[id] = Fragment{
		ID:          id,
		DatabaseKey: databaseKey,
		ICD10Code:   code,
		StorageKey:  storageKey,
		canonical:   m.SanitizedXML(),
	}
}

func fragmentIDs(meldungen []lkrexport.Meldung) []string {
	ids := make([]string, 0, len(meldungen))
	for _, m := range meldungen {
		if id, ok := m.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortFragments(fragments []Fragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		return lessFragment(fragments[i], fragments[j])
	})
}

// lessFragment orders by database key, numerically where possible, then by id
func lessFragment(a, b Fragment) bool {
	ka, kb := a.DatabaseKey, b.DatabaseKey
	if ka == "" {
		ka = a.ID
	}
	if kb == "" {
		kb = b.ID
	}
	if c := compareKeys(ka, kb); c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

// compareKeys compares decimal keys by value and sorts them before other keys.
// Non-decimal keys compare lexicographically.
func compareKeys(a, b string) int {
	na, nb := isDecimal(a), isDecimal(b)
	switch {
	case na && nb:
		a, b = trimZeros(a), trimZeros(b)
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case na:
		return -1
	case nb:
		return 1
	}
	return strings.Compare(a, b)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
