package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	pg "github.com/operator888/supactl/pkg/pgx"
	"github.com/operator888/supactl/pkg/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Show the inferred columns of a table",
	Long: `Infers columns by sampling one row through the gateway. The result is
approximate: a column that is null in the sampled row reports as text,
nullability is always "yes", and an empty table yields no columns.
With --pg.connString (or the config key) the exact catalog is read instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runColumns,
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var columns []schema.Column

	if connString := firstNonEmpty(viper.GetString("pg.connString"), cfg.PG.ConnString); connString != "" {
		pool, err := pg.NewPool(ctx, connString)
		if err != nil {
			return err
		}
		defer pool.Close()
		if columns, err = schema.CatalogColumns(ctx, pool, schema.DefaultSchema, args[0]); err != nil {
			return err
		}
	} else {
		conn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer conn.Disconnect()
		if columns, err = schema.Infer(ctx, conn, args[0]); err != nil {
			return err
		}
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"#", "Name", "Type", "Nullable", "Default"})
	for _, col := range columns {
		nullable := "no"
		if col.IsNullable {
			nullable = "yes"
		}
		tw.AppendRow(table.Row{col.Position, col.Name, col.DataType, nullable, col.Default})
	}
	tw.Render()
	return nil
}
