package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/pkg/lkrexport"
)

// Export rows of diagnosis reports, latest version of each tumour first.
// Deleted exports carry typ -1.
const conditionQuery = `
	SELECT me.id, lm.patient_id, lm.tumor_id, me.versionsnummer, me.xml_daten
	FROM lkr_meldung_export me
	JOIN lkr_meldung lm ON lm.id = me.lkr_meldung
	JOIN lkr_export le ON le.id = me.lkr_export
	WHERE me.typ <> -1
	  AND me.versionsnummer IS NOT NULL
	  AND le.exportiert_am < :ignore_exports_since
	  AND (lm.extern = 0 OR :include_extern = 1)
	  AND (lm.meldeanlass = 'diagnose'
	       OR (:include_histo_zyto = 1 AND lm.meldeanlass = 'histologie_zytologie'))
	ORDER BY lm.patient_id, lm.tumor_id, me.versionsnummer DESC, me.id DESC`

// ConditionRepository reads the conditions exported to the cancer registry
type ConditionRepository struct {
	db     *sqlx.DB
	system string
	log    *logrus.Logger
}

// NewConditionRepository creates a condition repository. system is the
// identifier system used to derive condition ids.
func NewConditionRepository(db *sqlx.DB, system string, logger *logrus.Logger) *ConditionRepository {
	return &ConditionRepository{
		db:     db,
		system: system,
		log:    logger,
	}
}

type tumorKey struct {
	patientID string
	tumorID   string
}

// Conditions returns one condition per tumour whose latest exported diagnosis
// falls into the filter's year.
func (r *ConditionRepository) Conditions(ctx context.Context, filter domain.QueryFilter) ([]domain.ConditionRecord, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query, args, err := sqlx.Named(conditionQuery, map[string]interface{}{
		"ignore_exports_since": filter.IgnoreExportsSince,
		"include_extern":       flag(filter.IncludeExtern),
		"include_histo_zyto":   flag(filter.IncludeHistoZyto),
	})
	if err != nil {
		return nil, fmt.Errorf("binding condition query: %w", err)
	}

	var rows []domain.ExportRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"year":  filter.Year,
			"error": err,
		}).Error("Failed to query conditions")
		return nil, fmt.Errorf("querying conditions: %w", err)
	}

	seen := make(map[tumorKey]bool)
	records := make([]domain.ConditionRecord, 0)
	skipped := 0

	for _, row := range rows {
		key := tumorKey{patientID: row.PatientID, tumorID: row.TumorID}
		if seen[key] {
			continue
		}

		record, ok := r.toCondition(row)
		if !ok {
			skipped++
			r.log.WithFields(logrus.Fields{
				"export_id": row.ID,
				"version":   row.Version,
			}).Debug("Export row without diagnosis")
			continue
		}
		seen[key] = true

		if !strings.HasPrefix(record.DiagnosisDate, filter.Year+"-") {
			continue
		}
		if !filter.WithPatientID {
			record.PatientID = ""
		}
		records = append(records, record)
	}

	r.log.WithFields(logrus.Fields{
		"year":       filter.Year,
		"rows":       len(rows),
		"skipped":    skipped,
		"conditions": len(records),
	}).Info("Conditions loaded")

	return records, nil
}

// toCondition extracts the diagnosis of one export row
func (r *ConditionRepository) toCondition(row domain.ExportRow) (domain.ConditionRecord, bool) {
	doc, err := lkrexport.Parse(row.Content)
	if err != nil {
		return domain.ConditionRecord{}, false
	}

	for _, meldung := range doc.Meldungen() {
		code, ok := meldung.ICD10()
		if !ok {
			continue
		}
		date, ok := meldung.DiagnosisDate()
		if !ok {
			continue
		}

		schemaVersion, _ := lkrexport.SchemaVersion(row.Content)
		return domain.ConditionRecord{
			PatientID:     row.PatientID,
			ConditionID:   ConditionID(r.system, row.PatientID, row.TumorID),
			DiagnosisDate: date,
			ICD10Code:     code,
			SchemaVersion: schemaVersion,
		}, true
	}

	return domain.ConditionRecord{}, false
}

// ConditionID derives the condition id of a tumour the same way the research
// data platform does: the hex encoded SHA-256 of "<system>|<patient>condition<tumor>".
func ConditionID(system, patientID, tumorID string) string {
	sum := sha256.Sum256([]byte(system + "|" + patientID + "condition" + tumorID))
	return hex.EncodeToString(sum[:])
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
