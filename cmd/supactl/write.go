package main

import (
	"fmt"
	"strings"

	"github.com/operator888/supactl/pkg/records"
	"github.com/spf13/cobra"
)

var insertCmd = &cobra.Command{
	Use:   "insert <table>",
	Short: "Insert a row",
	Long: `Inserts one row built from --set key=value pairs. An empty value
("--set name=") submits NULL: a blank field is the only way to express
"clear this column" from a flat form.`,
	Args: cobra.ExactArgs(1),
	RunE: runInsert,
}

var updateCmd = &cobra.Command{
	Use:   "update <table>",
	Short: "Update rows matching a key column",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <table>",
	Short: "Delete rows matching a key column",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	insertCmd.Flags().StringArray("set", nil, "Field assignment key=value (repeatable)")

	updateCmd.Flags().StringArray("set", nil, "Field assignment key=value (repeatable)")
	updateCmd.Flags().String("key", "", "Key predicate column=value selecting the rows to update")

	deleteCmd.Flags().String("key", "", "Key predicate column=value selecting the rows to delete")

	rootCmd.AddCommand(insertCmd, updateCmd, deleteCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	assignments, _ := cmd.Flags().GetStringArray("set")
	fields, err := parseAssignments(assignments)
	if err != nil {
		return err
	}
	if err := records.InsertRow(ctx, conn, args[0], fields); err != nil {
		return err
	}
	fmt.Println("Row inserted.")
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	assignments, _ := cmd.Flags().GetStringArray("set")
	fields, err := parseAssignments(assignments)
	if err != nil {
		return err
	}
	keyColumn, keyValue, err := parseKey(cmd)
	if err != nil {
		return err
	}
	if err := records.UpdateRow(ctx, conn, args[0], fields, keyColumn, keyValue); err != nil {
		return err
	}
	fmt.Println("Row updated.")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	keyColumn, keyValue, err := parseKey(cmd)
	if err != nil {
		return err
	}
	if err := records.DeleteRow(ctx, conn, args[0], keyColumn, keyValue); err != nil {
		return err
	}
	fmt.Println("Row deleted.")
	return nil
}

func parseAssignments(assignments []string) (map[string]any, error) {
	if len(assignments) == 0 {
		return nil, fmt.Errorf("at least one --set key=value is required")
	}
	fields := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		key, value, found := strings.Cut(assignment, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want key=value", assignment)
		}
		fields[key] = value
	}
	return fields, nil
}

func parseKey(cmd *cobra.Command) (string, string, error) {
	key, _ := cmd.Flags().GetString("key")
	column, value, found := strings.Cut(key, "=")
	if !found || column == "" {
		return "", "", fmt.Errorf("--key column=value is required")
	}
	return column, value, nil
}
