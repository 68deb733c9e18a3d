package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/internal/report"
	"github.com/rwdp-check/internal/repository"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the conditions of a diagnosis year in Onkostar with an OPAL CSV file",
		Long: `Lists the conditions found only in the database, the conditions found only in
the CSV file, and the conditions whose ICD-10 code differs. Codes of tracked
ICD-10 groups are highlighted.

Example:
  rwdp-check compare -u onkostar -y 2023 --file opal-2023.csv`,
		Args: cobra.NoArgs,
		RunE: runCompare,
	}
	cmd.Flags().StringP("file", "f", "", "OPAL CSV file")
	cmd.Flags().Bool("pat-id", false, "Include the patient id of database conditions")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCheckExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-export",
		Short: "Check an LKR export protocol against the stored rows of its export package",
		Long: `Compares every report (Meldung) of an export protocol with the reports stored
for the export package in Onkostar. Reports are matched by Meldung_ID and compared
after whitespace and empty elements have been normalized.

Example:
  rwdp-check check-export -u onkostar --file export-42.xml --package 42`,
		Args: cobra.NoArgs,
		RunE: runCheckExport,
	}
	cmd.Flags().StringP("file", "f", "", "Export protocol file")
	cmd.Flags().String("package", "", "Export package id")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("package")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	fromFile, err := a.readConditionFile(path)
	if err != nil {
		return err
	}

	fromDatabase, err := a.conditions(cmd.Context())
	if err != nil {
		return err
	}

	result := a.service.CompareRecords(fromDatabase, fromFile)
	return a.print(&report.ComparisonReport{
		Meta:   a.queryMeta().WithFile(path),
		Result: result,
	})
}

func runCheckExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	exportID, _ := cmd.Flags().GetString("package")

	content, err := os.ReadFile(path)
	if err != nil {
		return domain.NewCheckError(domain.ErrSourceFile, "cannot read file", err)
	}

	db, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	a.printer.Progress("Waiting for export package %s...", exportID)

	var source domain.ProtocolSource = repository.NewProtocolRepository(db.DB, a.logger)
	stored, err := source.ExportedProtocols(cmd.Context(), exportID)
	if err != nil {
		return domain.NewCheckError(domain.ErrDatabaseError, fmt.Sprintf("cannot read export package %s", exportID), err)
	}

	result, err := a.service.CheckExport(string(content), stored)
	if err != nil {
		return err
	}

	return a.print(&report.ExportCheckReport{
		Meta:    a.meta().WithFile(path),
		Package: exportID,
		Result:  result,
	})
}
