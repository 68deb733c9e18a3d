package service

import (
	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/pkg/icd10"
)

// ReconcilerService runs the reconciliations of one check and logs their outcome
type ReconcilerService struct {
	logger      *logrus.Logger
	matchPolicy MatchPolicy
	keyPolicy   KeyPolicy
}

// Option configures a ReconcilerService
type Option func(*ReconcilerService)

// WithMatchPolicy sets the counterpart reported for ambiguous code mismatches
func WithMatchPolicy(policy MatchPolicy) Option {
	return func(s *ReconcilerService) {
		s.matchPolicy = policy
	}
}

// WithKeyPolicy sets which report wins on duplicate Meldung_IDs
func WithKeyPolicy(policy KeyPolicy) Option {
	return func(s *ReconcilerService) {
		s.keyPolicy = policy
	}
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(logger *logrus.Logger, opts ...Option) *ReconcilerService {
	s := &ReconcilerService{
		logger:      logger,
		matchPolicy: FirstMatch,
		keyPolicy:   LastWins,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompareRecords reconciles the conditions of the database (A) with the
// conditions of a CSV file (B).
func (s *ReconcilerService) CompareRecords(database, file []domain.ConditionRecord) *RecordComparison {
	result := ReconcileRecords(database, file, s.matchPolicy)

	ambiguous := 0
	for _, m := range result.CodeMismatches {
		if m.Ambiguous() {
			ambiguous++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"database_conditions": len(database),
		"file_conditions":     len(file),
		"only_in_database":    len(result.OnlyInA),
		"only_in_file":        len(result.OnlyInB),
		"code_mismatches":     len(result.CodeMismatches),
		"ambiguous_matches":   ambiguous,
		"match_policy":        s.matchPolicy.String(),
	}).Info("Compared conditions")

	if ambiguous > 0 {
		s.logger.WithField("ambiguous_matches", ambiguous).
			Warn("Condition ids with several counterparts, reported counterpart depends on match policy")
	}

	return result
}

// CheckExport reconciles an export protocol with the stored rows of its export package
func (s *ReconcilerService) CheckExport(document string, stored []domain.StoredProtocol) (*ProtocolComparison, error) {
	result, err := ReconcileProtocol(document, stored, s.keyPolicy)
	if err != nil {
		return nil, domain.NewCheckError(domain.ErrExportProtocol, "cannot read export protocol", err)
	}

	for _, key := range result.SkippedRows {
		s.logger.WithField("storage_key", key).Warn("Skipped export row without patient data")
	}

	s.logger.WithFields(logrus.Fields{
		"stored_rows":            len(stored),
		"document_fragments":     result.DocumentFragments,
		"database_fragments":     result.DatabaseFragments,
		"missing_in_document":    len(result.MissingInDocument),
		"missing_in_database":    len(result.MissingInDatabase),
		"duplicate_storage_rows": len(result.DuplicateStorageRows),
		"content_mismatches":     len(result.ContentMismatches),
		"key_policy":             s.keyPolicy.String(),
	}).Info("Checked export protocol")

	return result, nil
}

// CountGroups groups conditions by ICD-10 group, optionally per schema version
func (s *ReconcilerService) CountGroups(records []domain.ConditionRecord, bySchemaVersion bool) []domain.Icd10GroupSize {
	if !bySchemaVersion {
		stripped := make([]domain.ConditionRecord, len(records))
		for i, r := range records {
			r.SchemaVersion = ""
			stripped[i] = r
		}
		records = stripped
	}

	sizes := icd10.GroupAndCount(records)
	relevant, total := icd10.Totals(sizes)

	s.logger.WithFields(logrus.Fields{
		"groups":   len(sizes),
		"relevant": relevant,
		"total":    total,
	}).Debug("Counted conditions by ICD-10 group")

	return sizes
}
