package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
)

// SQL exports the selected tables as executable SQL: a DROP/CREATE pair per
// table when schema is included, and one INSERT per row when data is
// included.
func SQL(ctx context.Context, conn *client.Connection, opts Options) ([]byte, *Result, error) {
	doc, result := Dump(ctx, conn, opts)

	// deterministic table order regardless of map iteration
	tables := make([]string, 0, len(doc))
	for table := range doc {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var sb strings.Builder
	for _, table := range tables {
		dump := doc[table]
		if opts.IncludeSchema && len(dump.Schema) > 0 {
			writeCreateTable(&sb, table, dump.Schema)
		}
		for _, row := range dump.Data {
			writeInsert(&sb, table, dump.Schema, row)
		}
		sb.WriteString("\n")
	}
	return []byte(sb.String()), result, nil
}

func writeCreateTable(sb *strings.Builder, table string, columns []schema.Column) {
	fmt.Fprintf(sb, "DROP TABLE IF EXISTS %s CASCADE;\n", quoteIdent(table))
	fmt.Fprintf(sb, "CREATE TABLE %s (\n", quoteIdent(table))
	for i, col := range columns {
		fmt.Fprintf(sb, "  %s %s", quoteIdent(col.Name), col.DataType)
		if !col.IsNullable {
			sb.WriteString(" NOT NULL")
		}
		if col.Default != "" {
			fmt.Fprintf(sb, " DEFAULT %s", col.Default)
		}
		if i < len(columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\n")
}

func writeInsert(sb *strings.Builder, table string, columns []schema.Column, row map[string]any) {
	names := columnOrder(columns, row)

	quoted := make([]string, len(names))
	literals := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
		literals[i] = Literal(row[name])
	}

	fmt.Fprintf(sb, "INSERT INTO %s (%s) VALUES (%s);\n",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(literals, ", "))
}

// columnOrder prefers the exported schema's column order; rows with fields
// the schema does not know about fall back to sorted field names.
func columnOrder(columns []schema.Column, row map[string]any) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, col := range columns {
		if _, ok := row[col.Name]; ok {
			names = append(names, col.Name)
			seen[col.Name] = struct{}{}
		}
	}
	var extra []string
	for name := range row {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Literal renders a sampled value as a SQL literal. Strings are
// single-quoted with embedded quotes doubled; structured values serialize
// to JSON text and are quoted the same way.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return quoteString(v)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return "NULL"
		}
		return quoteString(string(data))
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
