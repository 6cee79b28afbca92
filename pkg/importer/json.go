package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/export"
	"github.com/operator888/supactl/pkg/metrics"
	"github.com/operator888/supactl/pkg/records"
)

// JSON replays a document in the export shape: per table an optional
// schema (ignored on import; tables must already exist) and an optional
// data array whose rows are inserted one by one.
func JSON(ctx context.Context, conn *client.Connection, data []byte) (*Result, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", client.ErrImportValidation, err)
	}

	// Decode loosely: hand-edited dumps are common and field types drift.
	var doc export.Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: unexpected document shape: %v", client.ErrImportValidation, err)
	}

	tables := make([]string, 0, len(doc))
	for table := range doc {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	result := &Result{}
	for _, table := range tables {
		for i, row := range doc[table].Data {
			if err := records.InsertRow(ctx, conn, table, row); err != nil {
				metrics.ImportStatements.WithLabelValues("json", "error").Inc()
				result.Failed = append(result.Failed, export.ItemError{
					Item: fmt.Sprintf("%s row %d", table, i+1),
					Err:  err,
				})
				continue
			}
			metrics.ImportStatements.WithLabelValues("json", "ok").Inc()
			result.Succeeded++
		}
	}
	return result, nil
}
