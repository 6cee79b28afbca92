package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/operator888/supactl/pkg/client"
)

// timestampPattern matches the ISO-8601 date-time prefix the gateway uses
// for timestamp columns (YYYY-MM-DDTHH:MM:SS...).
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// Infer derives columns for a table by sampling a single row.
//
// This is a known-lossy heuristic, preserved deliberately: a column that is
// null in the sampled row is reported as text whatever its true type, every
// column is reported nullable because constraints are invisible here, and a
// table with zero rows yields zero columns. CatalogColumns is the accurate
// alternative when a direct connection exists.
func Infer(ctx context.Context, conn *client.Connection, table string) ([]Column, error) {
	resp, err := conn.Get(ctx, table, url.Values{"limit": {"1"}})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sample table %q: %v", client.ErrTableAccess, table, err)
	}

	fields, values, err := decodeFirstRow(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected response for table %q: %v", client.ErrTableAccess, table, err)
	}

	if fields == nil {
		// Table is reachable but empty. Confirm access with a zero-limit
		// probe so an empty result is distinguishable from a vanished or
		// revoked table.
		if _, err := conn.Get(ctx, table, url.Values{"limit": {"0"}}); err != nil {
			return nil, fmt.Errorf("%w: table %q: %v", client.ErrTableAccess, table, err)
		}
		return []Column{}, nil
	}

	columns := make([]Column, 0, len(fields))
	for i, name := range fields {
		columns = append(columns, Column{
			Name:       name,
			DataType:   InferType(values[name]),
			IsNullable: true, // never verified; constraints are not visible through sampling
			Position:   i + 1,
		})
	}
	return columns, nil
}

// InferType maps a sampled JSON value to a Postgres type name. First match
// wins; null collapses to text because a single sample carries no better
// information.
func InferType(value any) string {
	switch v := value.(type) {
	case nil:
		return TypeText
	case bool:
		return TypeBoolean
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			return TypeInteger
		}
		return TypeNumeric
	case float64:
		if v == float64(int64(v)) {
			return TypeInteger
		}
		return TypeNumeric
	case string:
		if len(v) == 36 {
			if _, err := uuid.Parse(v); err == nil {
				return TypeUUID
			}
		}
		if timestampPattern.MatchString(v) {
			return TypeTimestamp
		}
		return TypeText
	case map[string]any, []any:
		return TypeJSONB
	default:
		return TypeText
	}
}

// decodeFirstRow decodes the first object of a JSON array, preserving the
// field order of the wire encoding. Returns (nil, nil, nil) for an empty
// array. encoding/json maps are unordered, so the first object is walked
// token by token instead.
func decodeFirstRow(body []byte) (fields []string, values map[string]any, err error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, nil, fmt.Errorf("expected JSON array, got %v", tok)
	}

	if !dec.More() {
		return nil, nil, nil
	}

	tok, err = dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected row object, got %v", tok)
	}

	values = make(map[string]any)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected field name, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		var value any
		valDec := json.NewDecoder(bytes.NewReader(raw))
		valDec.UseNumber()
		if err := valDec.Decode(&value); err != nil {
			return nil, nil, err
		}

		fields = append(fields, key)
		values[key] = value
	}
	return fields, values, nil
}
