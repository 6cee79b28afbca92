package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/export"
	"github.com/operator888/supactl/pkg/metrics"
	pgquery "github.com/pganalyze/pg_query_go/v5"
)

// execFunction is the database function the gateway must expose for raw
// statement execution, eg:
//
//	CREATE FUNCTION exec_sql(query text) RETURNS void
//	LANGUAGE plpgsql AS $$ BEGIN EXECUTE query; END $$;
const execFunction = "exec_sql"

// SQL splits an uploaded dump into statements on ';', validates each with
// the Postgres parser, and executes the valid ones independently through
// the gateway's RPC endpoint. Statements that fail to parse are reported
// and never sent.
func SQL(ctx context.Context, conn *client.Connection, data []byte) (*Result, error) {
	statements := SplitStatements(string(data))
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: no statements found", client.ErrImportValidation)
	}

	result := &Result{}
	for i, stmt := range statements {
		item := fmt.Sprintf("statement %d", i+1)

		if _, err := pgquery.Parse(stmt); err != nil {
			metrics.ImportStatements.WithLabelValues("sql", "invalid").Inc()
			result.Failed = append(result.Failed, export.ItemError{
				Item: item,
				Err:  fmt.Errorf("%w: %v", client.ErrImportValidation, err),
			})
			continue
		}

		if _, err := conn.RPC(ctx, execFunction, map[string]string{"query": stmt}); err != nil {
			metrics.ImportStatements.WithLabelValues("sql", "error").Inc()
			result.Failed = append(result.Failed, export.ItemError{
				Item: item,
				Err:  fmt.Errorf("%w: %v", client.ErrWrite, err),
			})
			continue
		}
		metrics.ImportStatements.WithLabelValues("sql", "ok").Inc()
		result.Succeeded++
	}
	return result, nil
}

// SplitStatements breaks a dump on ';' and drops blank and comment-only
// fragments. Quoted semicolons are not handled; dumps produced by the
// export side never contain them unescaped inside a statement boundary the
// splitter would misread, and the parser catches the rest.
func SplitStatements(script string) []string {
	var statements []string
	for _, fragment := range strings.Split(script, ";") {
		stmt := strings.TrimSpace(fragment)
		if stmt == "" || isCommentOnly(stmt) {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return false
	}
	return true
}
