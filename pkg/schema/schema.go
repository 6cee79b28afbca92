// Package schema holds table and column descriptors and derives them for
// remote tables. Because the gateway exposes no reliable metadata endpoint,
// the primary strategy samples live data (see Infer); when a direct catalog
// connection is available, CatalogColumns is the preferred source.
package schema

// TableType classifies a discovered relation.
type TableType string

const (
	// TypeTable is the only kind discovery can attest to: the gateway
	// serves views and tables identically, so everything is reported as
	// a base table.
	TypeTable TableType = "BASE TABLE"
)

// DefaultSchema is the namespace the gateway exposes by default.
const DefaultSchema = "public"

// Table describes a discovered relation.
type Table struct {
	Name   string    `json:"name"`
	Schema string    `json:"schema"`
	Type   TableType `json:"type"`
}

// Inferred column data types. These mirror the Postgres type names used in
// generated DDL.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeNumeric   = "numeric"
	TypeBoolean   = "boolean"
	TypeUUID      = "uuid"
	TypeTimestamp = "timestamp with time zone"
	TypeJSONB     = "jsonb"
)

// Column describes one column of a table.
//
// When produced by sampling, Position is the 1-based index in the field
// order of the sampled row's JSON encoding. That order is whatever the
// gateway emitted for that single response; repeated calls may reorder.
type Column struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	Default    string `json:"default,omitempty"`
	IsNullable bool   `json:"is_nullable"`
	Position   int    `json:"position"`
}

// Dedupe returns tables filtered so each name appears once, first
// occurrence winning. Order is otherwise preserved.
func Dedupe(tables []Table) []Table {
	seen := make(map[string]struct{}, len(tables))
	out := make([]Table, 0, len(tables))
	for _, t := range tables {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		out = append(out, t)
	}
	return out
}
