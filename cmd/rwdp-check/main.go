package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rwdp-check/internal/domain"
)

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rwdp-check",
		Short: "Check the conditions exported to the cancer registry and the research data platform",
		Long: `rwdp-check compares the tumour diagnoses (conditions) known to Onkostar with the
conditions of an OPAL CSV export and with the export protocols sent to the cancer
registry (LKR).

Conditions are counted per ICD-10 group, exported to CSV, or reconciled by condition
id. Export protocols are reconciled report by report against the stored export rows
of their export package.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()

	// -h selects the database host, help is only available as --help
	flags.Bool("help", false, "Show help")

	flags.String("driver", "mysql", "Database driver (mysql, postgres, pgx, sqlite)")
	flags.StringP("host", "h", "localhost", "Database host")
	flags.IntP("port", "P", 3306, "Database port")
	flags.StringP("database", "D", "onkostar", "Database name, or the file of a sqlite database")
	flags.StringP("user", "u", "", "Database user")
	flags.StringP("password", "p", "", "Database password. Prompted for if not given")

	flags.StringP("year", "y", "", "Diagnosis year")
	flags.String("ignore-exports-since", "9999-12-31", "Ignore exports on or after this date (yyyy-mm-dd)")
	flags.Bool("include-extern", false, "Include reports with extern diagnosis")
	flags.Bool("include-histo-zyto", false, "Include histology and cytology reports")

	flags.String("format", "text", "Report format (text, json, yaml)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.String("config", "", "Config file (default ./rwdp-check.yaml)")

	rootCmd.AddCommand(newOpalFileCmd())
	rootCmd.AddCommand(newDatabaseCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newCheckExportCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var checkErr *domain.CheckError
		if errors.As(err, &checkErr) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", checkErr.Message)
			if checkErr.Err != nil {
				fmt.Fprintf(os.Stderr, "  %v\n", checkErr.Err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
