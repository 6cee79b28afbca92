package schema

import (
	"context"
	"fmt"

	pg "github.com/operator888/supactl/pkg/pgx"
)

// CatalogColumns reads true column metadata from information_schema over a
// direct Postgres connection. Unlike Infer it sees real types, nullability,
// and defaults; it is a separate, preferred strategy rather than a silent
// replacement for sampling.
func CatalogColumns(ctx context.Context, conn pg.Conn, schemaName, table string) ([]Column, error) {
	rows, err := conn.Query(ctx, `
		SELECT c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			COALESCE(c.column_default, ''),
			c.ordinal_position
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("query columns %s.%s: %w", schemaName, table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.Default, &col.Position); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// CatalogTables lists base tables in a schema from information_schema.
func CatalogTables(ctx context.Context, conn pg.Conn, schemaName string) ([]Table, error) {
	rows, err := conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("query tables in %s: %w", schemaName, err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		t.Schema = schemaName
		t.Type = TypeTable
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
