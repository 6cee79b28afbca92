package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
)

// tablePathPattern matches the resource path of a table in the gateway's
// OpenAPI document: a single identifier segment.
var tablePathPattern = regexp.MustCompile(`^/[A-Za-z_][A-Za-z0-9_]*$`)

// OpenAPIStrategy reads the gateway's self-describing API document from the
// data root. PostgREST publishes an OpenAPI (swagger) document whose paths
// section lists one entry per exposed relation, which makes this the
// cheapest and most reliable strategy: one request, no guessing.
type OpenAPIStrategy struct{}

func (s *OpenAPIStrategy) Name() string { return "openapi" }

func (s *OpenAPIStrategy) Discover(ctx context.Context, conn *client.Connection) ([]schema.Table, error) {
	resp, err := conn.Get(ctx, "", nil)
	if err != nil {
		return nil, classifyProbeErr(err)
	}

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("parse API document: %w", err)
	}

	names := make([]string, 0, len(doc.Paths))
	for path := range doc.Paths {
		if !tablePathPattern.MatchString(path) {
			continue
		}
		name := strings.TrimPrefix(path, "/")
		if name == "rpc" {
			continue
		}
		names = append(names, name)
	}
	// map iteration order is random; the document itself has no meaningful
	// order, so sort for a stable listing
	sort.Strings(names)

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, baseTable(name))
	}
	return tables, nil
}
