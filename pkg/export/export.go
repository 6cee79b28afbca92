// Package export serializes discovered schema and data to JSON or SQL.
// A multi-table export accumulates per-table failures instead of aborting,
// so partial success is reported with an itemized error list.
package export

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
	"go.uber.org/zap"
)

// fetchPageSize bounds per-request row counts when draining a table.
const fetchPageSize = 1000

// Options select what to export.
type Options struct {
	Logger        *zap.Logger
	Tables        []string
	IncludeSchema bool
	IncludeData   bool
}

// TableDump is the export shape for one table.
type TableDump struct {
	Schema []schema.Column  `json:"schema,omitempty"`
	Data   []map[string]any `json:"data,omitempty"`
}

// Document maps table name to its dump. This is also the shape the JSON
// importer consumes.
type Document map[string]TableDump

// ItemError records one failed item in a multi-item operation.
type ItemError struct {
	Item string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Item, e.Err)
}

// Result summarizes a multi-item operation: which items succeeded and a
// structured list of those that did not. Some items failing is an
// expected outcome, not an exception.
type Result struct {
	Succeeded []string
	Failed    []ItemError
}

// Dump collects schema and data for the selected tables. Per-table
// failures land in the result; the returned document holds every table
// that succeeded.
func Dump(ctx context.Context, conn *client.Connection, opts Options) (Document, *Result) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	doc := make(Document, len(opts.Tables))
	result := &Result{}

	for _, table := range opts.Tables {
		dump, err := dumpTable(ctx, conn, table, opts)
		if err != nil {
			logger.Warn("table export failed", zap.String("table", table), zap.Error(err))
			result.Failed = append(result.Failed, ItemError{Item: table, Err: err})
			continue
		}
		doc[table] = dump
		result.Succeeded = append(result.Succeeded, table)
	}
	return doc, result
}

func dumpTable(ctx context.Context, conn *client.Connection, table string, opts Options) (TableDump, error) {
	var dump TableDump

	if opts.IncludeSchema {
		columns, err := schema.Infer(ctx, conn, table)
		if err != nil {
			return dump, err
		}
		dump.Schema = columns
	}

	if opts.IncludeData {
		rows, err := fetchAllRows(ctx, conn, table)
		if err != nil {
			return dump, err
		}
		dump.Data = rows
	}
	return dump, nil
}

// fetchAllRows drains a table page by page. The gateway caps response
// sizes, so a single unbounded read is not reliable for large tables.
func fetchAllRows(ctx context.Context, conn *client.Connection, table string) ([]map[string]any, error) {
	var all []map[string]any
	for offset := 0; ; offset += fetchPageSize {
		resp, err := conn.Get(ctx, table, url.Values{
			"limit":  {strconv.Itoa(fetchPageSize)},
			"offset": {strconv.Itoa(offset)},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %q at offset %d: %v", client.ErrQuery, table, offset, err)
		}
		rows, err := decodeRows(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: unexpected row data from %q: %v", client.ErrQuery, table, err)
		}
		all = append(all, rows...)
		if len(rows) < fetchPageSize {
			return all, nil
		}
	}
}
