package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/operator888/supactl/pkg/client"
)

// JSON exports the selected tables as an indented JSON document mapping
// table name to {schema, data}.
func JSON(ctx context.Context, conn *client.Connection, opts Options) ([]byte, *Result, error) {
	doc, result := Dump(ctx, conn, opts)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, result, fmt.Errorf("encode export document: %w", err)
	}
	return data, result, nil
}

// decodeRows keeps numbers as json.Number so SQL literals round-trip
// without float formatting artifacts.
func decodeRows(body []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}
