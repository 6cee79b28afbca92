package main

import (
	"fmt"
	"os"

	"github.com/operator888/supactl/pkg/discover"
	"github.com/operator888/supactl/pkg/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export [table]...",
	Short: "Export tables as JSON or SQL",
	Long: `Exports the named tables (or every discovered table when none are
named) to stdout or --output. Per-table failures are reported at the
end; the export continues past them.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringP("format", "f", "json", "Output format: json or sql")
	f.StringP("output", "o", "", "Output file (default stdout)")
	f.Bool("schema", true, "Include schema")
	f.Bool("data", true, "Include data")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	tables := args
	if len(tables) == 0 {
		discovered, err := discover.Tables(ctx, conn, &discover.Options{Logger: logger})
		if err != nil {
			logger.Warn("discovery finished with errors", zap.Error(err))
		}
		for _, t := range discovered {
			tables = append(tables, t.Name)
		}
	}
	if len(tables) == 0 {
		return fmt.Errorf("nothing to export: no tables named or discovered")
	}

	includeSchema, _ := cmd.Flags().GetBool("schema")
	includeData, _ := cmd.Flags().GetBool("data")
	opts := export.Options{
		Logger:        logger,
		Tables:        tables,
		IncludeSchema: includeSchema,
		IncludeData:   includeData,
	}

	format, _ := cmd.Flags().GetString("format")
	var (
		data   []byte
		result *export.Result
	)
	switch format {
	case "json":
		data, result, err = export.JSON(ctx, conn, opts)
	case "sql":
		data, result, err = export.SQL(ctx, conn, opts)
	default:
		return fmt.Errorf("unsupported format %q, want json or sql", format)
	}
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Println(string(data))
	} else if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %d table(s)", len(result.Succeeded))
	if len(result.Failed) > 0 {
		fmt.Fprintf(os.Stderr, ", %d failed:\n", len(result.Failed))
		for _, item := range result.Failed {
			fmt.Fprintf(os.Stderr, "  %s\n", item.Error())
		}
	} else {
		fmt.Fprintln(os.Stderr)
	}
	return nil
}
