package discover

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
)

// IntrospectionStrategy asks the data root for a table_name projection, the
// shape an information_schema view would answer with if the deployment
// exposed one. Hosted gateways almost never do, so this is a best-effort
// probe kept for the deployments that re-expose catalog views; its failures
// are logged by the cascade, never surfaced.
type IntrospectionStrategy struct{}

func (s *IntrospectionStrategy) Name() string { return "introspection" }

func (s *IntrospectionStrategy) Discover(ctx context.Context, conn *client.Connection) ([]schema.Table, error) {
	resp, err := conn.Get(ctx, "", url.Values{"select": {"table_name"}})
	if err != nil {
		return nil, classifyProbeErr(err)
	}

	// Parse defensively: the root usually answers with the OpenAPI
	// document, not a row set, and anything non-array means "no result".
	var rows []map[string]any
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, nil
	}

	var tables []schema.Table
	for _, row := range rows {
		name, ok := row["table_name"].(string)
		if !ok || name == "" {
			continue
		}
		tables = append(tables, baseTable(name))
	}
	return tables, nil
}
