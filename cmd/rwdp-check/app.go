package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rwdp-check/internal/config"
	"github.com/rwdp-check/internal/database"
	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/internal/logging"
	"github.com/rwdp-check/internal/opal"
	"github.com/rwdp-check/internal/prompt"
	"github.com/rwdp-check/internal/report"
	"github.com/rwdp-check/internal/repository"
	"github.com/rwdp-check/internal/service"
)

// app holds what every command needs for one run
type app struct {
	config  *config.Manager
	logger  *logrus.Logger
	log     *logrus.Entry
	runID   string
	command string
	printer *report.Printer
	service *service.ReconcilerService
}

func newApp(cmd *cobra.Command) (*app, error) {
	manager, err := config.NewManager(cmd.Flags())
	if err != nil {
		return nil, domain.NewCheckError(domain.ErrConfiguration, "cannot load configuration", err)
	}
	if err := manager.ValidateReport(); err != nil {
		return nil, domain.NewCheckError(domain.ErrConfiguration, "invalid report settings", err)
	}

	cfg := manager.GetConfig()
	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	entry, runID := logging.ForRun(logger, cmd.Name())

	return &app{
		config:  manager,
		logger:  logger,
		log:     entry,
		runID:   runID,
		command: cmd.Name(),
		printer: report.NewPrinter(cmd.OutOrStdout(), cfg.Report),
		service: service.NewReconcilerService(logger),
	}, nil
}

func (a *app) meta() report.Meta {
	return report.NewMeta(a.runID, a.command)
}

// queryMeta is the report metadata of a command reading conditions from the database
func (a *app) queryMeta() report.Meta {
	query := a.config.GetQueryConfig()
	return a.meta().WithQuery(query.Year, query.IncludeExtern)
}

func (a *app) print(r report.Report) error {
	if err := a.printer.Print(r); err != nil {
		return domain.NewCheckError(domain.ErrReport, "cannot write report", err)
	}
	return nil
}

// connect opens the Onkostar database. A missing password is prompted for
// unless the database is a sqlite file.
func (a *app) connect(ctx context.Context) (*database.DB, error) {
	if err := a.config.ValidateDatabase(); err != nil {
		return nil, domain.NewCheckError(domain.ErrConfiguration, "invalid database settings", err)
	}

	dbConfig := a.config.GetDatabaseConfig()
	if dbConfig.Password == "" && dbConfig.Driver != database.DriverSQLite {
		password, err := prompt.Password(os.Stdin, os.Stderr, dbConfig.Username)
		if err != nil {
			return nil, domain.NewCheckError(domain.ErrConfiguration, "cannot read database password", err)
		}
		a.config.SetPassword(password)
	}

	db, err := database.NewConnection(ctx, *a.config.GetDatabaseConfig(), a.logger)
	if err != nil {
		return nil, domain.NewCheckError(domain.ErrDatabaseError, "cannot connect to the database", err)
	}
	return db, nil
}

// conditions reads the conditions of the configured diagnosis year
func (a *app) conditions(ctx context.Context) ([]domain.ConditionRecord, error) {
	if err := a.config.ValidateQuery(); err != nil {
		return nil, domain.NewCheckError(domain.ErrConfiguration, "invalid query settings", err)
	}

	db, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := a.config.GetQueryConfig()
	a.printer.Progress("Waiting for conditions of diagnosis year %s...", query.Year)

	var source domain.ConditionSource = repository.NewConditionRepository(db.DB, query.ConditionIDSystem, a.logger)
	records, err := source.Conditions(ctx, query.Filter())
	if err != nil {
		return nil, domain.NewCheckError(domain.ErrDatabaseError, "cannot read conditions from the database", err)
	}

	a.log.WithField("conditions", len(records)).Info("Read conditions from the database")
	return records, nil
}

// conditionFile returns the CSV source and sink for conditions
func (a *app) conditionFile(spreadsheet bool) domain.ConditionFile {
	return opal.NewFile(spreadsheet, a.logger)
}

func (a *app) readConditionFile(path string) ([]domain.ConditionRecord, error) {
	records, err := a.conditionFile(false).ReadConditions(path)
	if err != nil {
		return nil, domain.NewCheckError(domain.ErrSourceFile, "cannot read file", err)
	}
	a.log.WithFields(logrus.Fields{
		"file":       path,
		"conditions": len(records),
	}).Info("Read conditions from file")
	return records, nil
}
