package main

import (
	"github.com/spf13/cobra"

	"github.com/rwdp-check/internal/domain"
	"github.com/rwdp-check/internal/report"
)

func newOpalFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opal-file",
		Short: "Count the conditions of an OPAL CSV file per ICD-10 group",
		Args:  cobra.NoArgs,
		RunE:  runOpalFile,
	}
	cmd.Flags().StringP("file", "f", "", "OPAL CSV file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDatabaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Count the conditions of a diagnosis year in the Onkostar database per ICD-10 group",
		Long: `Reads the latest exported version of every diagnosis report of the given year
from the Onkostar database and counts the resulting conditions per ICD-10 group.

Example:
  rwdp-check database -u onkostar -y 2023
  rwdp-check database -u onkostar -y 23 --schema-versions`,
		Args: cobra.NoArgs,
		RunE: runDatabase,
	}
	cmd.Flags().Bool("schema-versions", false, "Count per ADT-GEKID schema version")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the conditions of a diagnosis year from the Onkostar database to a CSV file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	cmd.Flags().StringP("output", "o", "", "Output CSV file")
	cmd.Flags().Bool("xls-csv", false, "Use ';' as delimiter for spreadsheet applications")
	cmd.Flags().Bool("pat-id", false, "Include the patient id")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runOpalFile(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	records, err := a.readConditionFile(path)
	if err != nil {
		return err
	}

	groups := a.service.CountGroups(records, false)
	return a.print(report.NewGroupReport(a.meta().WithFile(path), groups))
}

func runDatabase(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	records, err := a.conditions(cmd.Context())
	if err != nil {
		return err
	}

	bySchemaVersion, _ := cmd.Flags().GetBool("schema-versions")
	groups := a.service.CountGroups(records, bySchemaVersion)
	return a.print(report.NewGroupReport(a.queryMeta(), groups))
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	records, err := a.conditions(cmd.Context())
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	spreadsheet, _ := cmd.Flags().GetBool("xls-csv")
	if err := a.conditionFile(spreadsheet).WriteConditions(output, records); err != nil {
		return domain.NewCheckError(domain.ErrSourceFile, "cannot write file", err)
	}

	a.log.WithField("file", output).Info("Exported conditions")
	return a.print(&report.ExportReport{
		Meta:       a.queryMeta().WithFile(output),
		Conditions: len(records),
	})
}
