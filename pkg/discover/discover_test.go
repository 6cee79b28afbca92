package discover

import (
	"context"
	"strings"
	"testing"

	"github.com/operator888/supactl/internal/testutil"
	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTo(t *testing.T, gw *testutil.Gateway) *client.Connection {
	t.Helper()
	conn, err := client.Connect(context.Background(), gw.URL(), "key",
		client.WithHostPattern(testutil.AnyHost),
		client.WithRetry(false))
	require.NoError(t, err)
	return conn
}

func TestOpenAPIStrategyFiltersPaths(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	defer gw.Close()
	gw.OpenAPIPaths = []string{
		"/users",
		"/_private",
		"/rpc",          // reserved segment, not a table
		"/rpc/do_thing", // nested, not a single identifier
		"/has-dash",     // not an identifier
		"/1starts_with_digit",
		"/users/{id}",
	}
	conn := connectTo(t, gw)

	tables, err := (&OpenAPIStrategy{}).Discover(context.Background(), conn)
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
		assert.Equal(t, schema.DefaultSchema, tbl.Schema)
		assert.Equal(t, schema.TypeTable, tbl.Type)
	}
	assert.Equal(t, []string{"_private", "users"}, names)
}

func TestCascadeShortCircuits(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"users": {{"id": 1}},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	tables, err := Tables(context.Background(), conn, nil)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)

	// strategy 1 succeeded, so no per-table probe was ever issued:
	// the only data-path requests are the connect probe and the API
	// document fetch, both against the root
	probes := gw.CountRequests(func(methodPath string) bool {
		return strings.HasPrefix(methodPath, "GET /rest/v1/") && methodPath != "GET /rest/v1/"
	})
	assert.Zero(t, probes, "fallback strategies must not run once a strategy yields results")
}

func TestCascadeFallsBackToDictionary(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"users":  {{"id": 1}},
		"orders": {},
	})
	defer gw.Close()
	gw.OpenAPIPaths = []string{} // API document advertises nothing
	conn := connectTo(t, gw)

	tables, err := Tables(context.Background(), conn, nil)
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	// dictionary order, not alphabetical
	assert.Equal(t, []string{"users", "orders"}, names)

	// every dictionary name was probed exactly once
	assert.Equal(t, 1, gw.RequestCount("GET /rest/v1/users"))
	assert.Equal(t, 1, gw.RequestCount("GET /rest/v1/products"))
}

func TestCascadeDeduplicates(t *testing.T) {
	dup := stubStrategy{name: "stub", tables: []schema.Table{
		{Name: "users", Schema: "public", Type: schema.TypeTable},
		{Name: "users", Schema: "public", Type: schema.TypeTable},
		{Name: "orders", Schema: "public", Type: schema.TypeTable},
	}}

	tables, err := Tables(context.Background(), nil, &Options{
		Strategies: []Strategy{dup},
	})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, "orders", tables[1].Name)
}

func TestCascadeSkipsFailingStrategy(t *testing.T) {
	boom := stubStrategy{name: "boom", err: assert.AnError}
	ok := stubStrategy{name: "ok", tables: []schema.Table{
		{Name: "t1", Schema: "public", Type: schema.TypeTable},
	}}

	tables, err := Tables(context.Background(), nil, &Options{
		Strategies: []Strategy{boom, ok},
	})
	require.NoError(t, err, "strategy failures are swallowed, not propagated")
	require.Len(t, tables, 1)
	assert.Equal(t, "t1", tables[0].Name)
}

func TestCascadeReportsUnreachableGateway(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	conn := connectTo(t, gw)
	gw.Close() // now unreachable

	tables, err := Tables(context.Background(), conn, &Options{ProbeBudget: 5})
	assert.Empty(t, tables)
	assert.ErrorIs(t, err, client.ErrNetwork)
}

func TestProbeBudgetBoundsGuessing(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	defer gw.Close()
	gw.OpenAPIPaths = []string{}
	conn := connectTo(t, gw)

	tables, err := Tables(context.Background(), conn, &Options{ProbeBudget: 7})
	require.NoError(t, err)
	assert.Empty(t, tables)

	probes := gw.CountRequests(func(methodPath string) bool {
		return strings.HasPrefix(methodPath, "GET /rest/v1/") && methodPath != "GET /rest/v1/"
	})
	assert.Equal(t, 7, probes, "dictionary and brute force share one probe budget")
}

func TestBruteForceCandidatesAreExhaustive(t *testing.T) {
	s := NewBruteForceStrategy(0)
	candidates := s.Candidates()

	// nothing in the configured parts exceeds the length cap, so the
	// full cross product survives the filter
	assert.Len(t, candidates, len(brutePrefixes)*len(bruteStems)*len(bruteSuffixes))
	for _, name := range candidates {
		assert.LessOrEqual(t, len(name), maxCandidateLen)
	}
	assert.Contains(t, candidates, "users")
	assert.Contains(t, candidates, "tbl_log_data")
}

func TestBruteForceCompletesPassAfterHit(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"apps":  {},        // hit early in the pass ("app" stem, "s" suffix)
		"users": {{"x": 1}}, // hit later ("user" stem)
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	s := NewBruteForceStrategy(0)
	tables, err := s.Discover(context.Background(), conn)
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	assert.Contains(t, names, "apps")
	assert.Contains(t, names, "users", "a hit must not cut the pass short")

	probes := gw.CountRequests(func(methodPath string) bool {
		return strings.HasPrefix(methodPath, "GET /rest/v1/") && methodPath != "GET /rest/v1/"
	})
	assert.Equal(t, len(s.Candidates()), probes, "the whole cross product is probed")
}

type stubStrategy struct {
	name   string
	tables []schema.Table
	err    error
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Discover(context.Context, *client.Connection) ([]schema.Table, error) {
	return s.tables, s.err
}
