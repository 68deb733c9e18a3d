package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rwdp-check/internal/domain"
)

//go:embed migrations
var migrations embed.FS

// SchemaRunner applies the Onkostar export tables to snapshot and test databases.
// It uses its own connection; closing the runner does not affect other handles.
type SchemaRunner struct {
	migrate *migrate.Migrate
	pool    *pgxpool.Pool
	log     *logrus.Logger
}

// NewSchemaRunner creates a schema runner for sqlite and PostgreSQL databases
func NewSchemaRunner(ctx context.Context, config domain.DatabaseConfig, logger *logrus.Logger) (*SchemaRunner, error) {
	dialect, err := schemaDialect(config.Driver)
	if err != nil {
		return nil, err
	}

	db, pool, err := open(ctx, config)
	if err != nil {
		return nil, err
	}

	var driver migratedb.Driver
	switch dialect {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	}
	if err != nil {
		closeAll(db, pool)
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations/"+dialect)
	if err != nil {
		closeAll(db, pool)
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		closeAll(db, pool)
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return &SchemaRunner{
		migrate: m,
		pool:    pool,
		log:     logger,
	}, nil
}

func schemaDialect(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return DriverSQLite, nil
	case DriverPostgres, DriverPgx:
		return DriverPostgres, nil
	}
	return "", domain.NewValidationError("database.driver", "no embedded schema for driver", driver)
}

func closeAll(db *sqlx.DB, pool *pgxpool.Pool) {
	db.Close()
	if pool != nil {
		pool.Close()
	}
}

// Up creates all missing tables
func (sr *SchemaRunner) Up(ctx context.Context) error {
	sr.log.Info("Applying Onkostar export schema")

	if err := sr.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			sr.log.Info("Schema is up to date")
			return nil
		}
		return fmt.Errorf("applying schema: %w", err)
	}

	version, dirty, err := sr.migrate.Version()
	if err != nil {
		sr.log.WithError(err).Warn("Could not get schema version after up")
	} else {
		sr.log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Schema applied successfully")
	}

	return nil
}

// Down drops all tables created by Up
func (sr *SchemaRunner) Down(ctx context.Context) error {
	sr.log.Info("Dropping Onkostar export schema")

	if err := sr.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			sr.log.Info("No schema to drop")
			return nil
		}
		return fmt.Errorf("dropping schema: %w", err)
	}
	return nil
}

// Version returns the current schema version
func (sr *SchemaRunner) Version() (uint, bool, error) {
	return sr.migrate.Version()
}

// Close closes the schema runner and its connection
func (sr *SchemaRunner) Close() error {
	sourceErr, dbErr := sr.migrate.Close()
	if sr.pool != nil {
		sr.pool.Close()
	}
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
