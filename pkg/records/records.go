// Package records performs paginated reads and row-level writes against a
// named table through the gateway.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/httputil"
	"github.com/operator888/supactl/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// RowSet is one page of a table.
type RowSet struct {
	Columns []schema.Column
	Rows    []map[string]any
	// TotalCount comes from a separate count query and may race with
	// concurrent writes; treat it as approximate.
	TotalCount int64
}

// GetPage fetches page (1-based) of pageSize rows, the exact row count, and
// the inferred columns. The three requests are independent and issued
// concurrently; the call fails if the row read or the count read fails.
// A failed column inference degrades to descriptors synthesized from the
// first returned row.
func GetPage(ctx context.Context, conn *client.Connection, table string, page, pageSize int) (*RowSet, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: invalid page %d or page size %d", client.ErrQuery, page, pageSize)
	}
	offset := (page - 1) * pageSize

	var (
		rows    []map[string]any
		total   int64
		columns []schema.Column
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := conn.Get(gctx, table, url.Values{
			"limit":  {strconv.Itoa(pageSize)},
			"offset": {strconv.Itoa(offset)},
		})
		if err != nil {
			return fmt.Errorf("%w: failed to fetch rows from %q: %v", client.ErrQuery, table, gatewayMessage(err))
		}
		if rows, err = decodeRows(resp.Body); err != nil {
			return fmt.Errorf("%w: unexpected row data from %q: %v", client.ErrQuery, table, err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		if total, err = CountRows(gctx, conn, table); err != nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cols, err := schema.Infer(gctx, conn, table)
		if err == nil {
			columns = cols
		}
		// swallowed: the page is still usable with synthesized columns
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if columns == nil && len(rows) > 0 {
		columns = synthesizeColumns(rows[0])
	}

	return &RowSet{Columns: columns, Rows: rows, TotalCount: total}, nil
}

// CountRows returns the exact row count via a head-only request, parsed
// from the Content-Range header.
func CountRows(ctx context.Context, conn *client.Connection, table string) (int64, error) {
	resp, err := conn.Head(ctx, table, url.Values{"limit": {"1"}}, http.Header{
		"Prefer": {"count=exact"},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count rows in %q: %v", client.ErrQuery, table, gatewayMessage(err))
	}
	total, err := parseContentRange(resp.Headers.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count rows in %q: %v", client.ErrQuery, table, err)
	}
	return total, nil
}

// parseContentRange extracts the total from a "lo-hi/total" range header.
func parseContentRange(header string) (int64, error) {
	_, totalPart, found := strings.Cut(header, "/")
	if !found {
		return 0, fmt.Errorf("malformed Content-Range %q", header)
	}
	total, err := strconv.ParseInt(totalPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed Content-Range total %q", header)
	}
	return total, nil
}

// NormalizeFields converts empty-string values to null, leaving everything
// else untouched. A blank form input is the only way the operator can say
// "clear this field", so empty string submits as SQL NULL by policy.
func NormalizeFields(fields map[string]any) map[string]any {
	normalized := make(map[string]any, len(fields))
	for name, value := range fields {
		if s, ok := value.(string); ok && s == "" {
			normalized[name] = nil
			continue
		}
		normalized[name] = value
	}
	return normalized
}

// InsertRow inserts one row. Empty-string fields are submitted as null.
func InsertRow(ctx context.Context, conn *client.Connection, table string, fields map[string]any) error {
	payload := NormalizeFields(fields)
	_, err := conn.Post(ctx, table, nil, http.Header{"Prefer": {"return=minimal"}}, payload)
	if err != nil {
		return fmt.Errorf("%w: failed to insert row: %v", client.ErrWrite, gatewayMessage(err))
	}
	return nil
}

// UpdateRow updates rows matching keyColumn = keyValue. The caller chooses
// the key column; no primary-key discovery happens here.
func UpdateRow(ctx context.Context, conn *client.Connection, table string, fields map[string]any, keyColumn string, keyValue any) error {
	payload := NormalizeFields(fields)
	query := url.Values{keyColumn: {eqFilter(keyValue)}}
	if _, err := conn.Patch(ctx, table, query, payload); err != nil {
		return fmt.Errorf("%w: failed to update row: %v", client.ErrWrite, gatewayMessage(err))
	}
	return nil
}

// DeleteRow deletes rows matching keyColumn = keyValue.
func DeleteRow(ctx context.Context, conn *client.Connection, table string, keyColumn string, keyValue any) error {
	query := url.Values{keyColumn: {eqFilter(keyValue)}}
	if _, err := conn.Delete(ctx, table, query); err != nil {
		return fmt.Errorf("%w: failed to delete row: %v", client.ErrWrite, gatewayMessage(err))
	}
	return nil
}

func eqFilter(value any) string {
	return fmt.Sprintf("eq.%v", value)
}

func decodeRows(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func synthesizeColumns(row map[string]any) []schema.Column {
	columns := make([]schema.Column, 0, len(row))
	i := 0
	for name, value := range row {
		i++
		columns = append(columns, schema.Column{
			Name:       name,
			DataType:   schema.InferType(value),
			IsNullable: true,
			Position:   i,
		})
	}
	return columns
}

// gatewayMessage unwraps a status error so the service's own message text
// reaches the operator verbatim.
func gatewayMessage(err error) string {
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.Body != "" {
		return statusErr.Body
	}
	return err.Error()
}
