package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/operator888/supactl/pkg/records"
	"github.com/spf13/cobra"
)

var rowsCmd = &cobra.Command{
	Use:   "rows <table>",
	Short: "Browse a table one page at a time",
	Args:  cobra.ExactArgs(1),
	RunE:  runRows,
}

func init() {
	f := rowsCmd.Flags()
	f.IntP("page", "p", 1, "Page number (1-based)")
	f.IntP("page-size", "s", 50, "Rows per page")
	rootCmd.AddCommand(rowsCmd)
}

func runRows(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	rowSet, err := records.GetPage(ctx, conn, args[0], page, pageSize)
	if err != nil {
		return err
	}

	names := columnNames(rowSet)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	header := make(table.Row, len(names))
	for i, name := range names {
		header[i] = name
	}
	tw.AppendHeader(header)
	for _, row := range rowSet.Rows {
		cells := make(table.Row, len(names))
		for i, name := range names {
			cells[i] = renderCell(row[name])
		}
		tw.AppendRow(cells)
	}
	tw.Render()

	fmt.Printf("Page %d (%d rows of ~%d total)\n", page, len(rowSet.Rows), rowSet.TotalCount)
	return nil
}

func columnNames(rs *records.RowSet) []string {
	if len(rs.Columns) > 0 {
		names := make([]string, len(rs.Columns))
		for i, col := range rs.Columns {
			names[i] = col.Name
		}
		return names
	}
	// no schema at all: stable fallback from the first row
	if len(rs.Rows) > 0 {
		var names []string
		for name := range rs.Rows[0] {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	return nil
}

func renderCell(value any) string {
	if value == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", value)
}
