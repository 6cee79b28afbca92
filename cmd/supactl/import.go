package main

import (
	"fmt"
	"os"

	"github.com/operator888/supactl/pkg/importer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a .json or .sql dump",
	Long: `Replays a dump against the project. JSON documents insert row by row;
SQL scripts execute statement by statement with no transaction, so a
failure partway leaves earlier statements applied. Every item's outcome
is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	result, err := importer.File(ctx, conn, args[0], data)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d item(s)", result.Succeeded)
	if len(result.Failed) > 0 {
		fmt.Printf(", %d failed:\n", len(result.Failed))
		for _, item := range result.Failed {
			fmt.Printf("  %s\n", item.Error())
		}
	} else {
		fmt.Println()
	}
	return nil
}
