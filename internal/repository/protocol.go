package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
)

const exportedProtocolsQuery = `
	SELECT id, xml_daten
	FROM lkr_meldung_export
	WHERE lkr_export = :export_id
	  AND typ <> -1
	  AND versionsnummer IS NOT NULL
	ORDER BY id`

// ProtocolRepository reads the stored rows of an export package
type ProtocolRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// NewProtocolRepository creates a new protocol repository
func NewProtocolRepository(db *sqlx.DB, logger *logrus.Logger) *ProtocolRepository {
	return &ProtocolRepository{
		db:  db,
		log: logger,
	}
}

// ExportedProtocols returns the stored export rows of one export package.
// Returns domain.ErrNotFound if the package has no rows.
func (r *ProtocolRepository) ExportedProtocols(ctx context.Context, exportID string) ([]domain.StoredProtocol, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(exportID), 10, 64)
	if err != nil || id <= 0 {
		return nil, domain.NewValidationError("package", "must be a positive export package number", exportID)
	}

	query, args, err := sqlx.Named(exportedProtocolsQuery, map[string]interface{}{"export_id": id})
	if err != nil {
		return nil, fmt.Errorf("binding export query: %w", err)
	}

	var protocols []domain.StoredProtocol
	if err := r.db.SelectContext(ctx, &protocols, r.db.Rebind(query), args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"export_id": id,
			"error":     err,
		}).Error("Failed to query exported protocols")
		return nil, fmt.Errorf("querying exported protocols: %w", err)
	}

	if len(protocols) == 0 {
		return nil, fmt.Errorf("export package %d: %w", id, domain.ErrNotFound)
	}

	r.log.WithFields(logrus.Fields{
		"export_id": id,
		"rows":      len(protocols),
	}).Info("Exported protocols loaded")

	return protocols, nil
}
