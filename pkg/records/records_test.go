package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/operator888/supactl/internal/testutil"
	"github.com/operator888/supactl/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTo(t *testing.T, gw *testutil.Gateway) *client.Connection {
	t.Helper()
	conn, err := client.Connect(context.Background(), gw.URL(), "key",
		client.WithHostPattern(testutil.AnyHost))
	require.NoError(t, err)
	return conn
}

func numberedRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": i, "name": fmt.Sprintf("row-%d", i)}
	}
	return rows
}

func TestGetPageRequestsCorrectOffset(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"items": numberedRows(120),
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	rowSet, err := GetPage(context.Background(), conn, "items", 2, 50)
	require.NoError(t, err)

	require.Len(t, rowSet.Rows, 50)
	assert.Equal(t, json.Number("50"), rowSet.Rows[0]["id"], "page 2 starts at offset 50")
	assert.Equal(t, json.Number("99"), rowSet.Rows[49]["id"], "page 2 ends at offset 99")
	assert.Equal(t, int64(120), rowSet.TotalCount)

	// the row fetch carried limit=50&offset=50
	var sawRange bool
	for _, query := range gw.Queries["GET /rest/v1/items"] {
		if strings.Contains(query, "limit=50") && strings.Contains(query, "offset=50") {
			sawRange = true
		}
	}
	assert.True(t, sawRange, "expected a limit=50&offset=50 read, got %v", gw.Queries["GET /rest/v1/items"])
}

func TestGetPageColumns(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"items": numberedRows(3),
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	rowSet, err := GetPage(context.Background(), conn, "items", 1, 10)
	require.NoError(t, err)
	require.Len(t, rowSet.Columns, 2)
	assert.Equal(t, "id", rowSet.Columns[0].Name)
	assert.Equal(t, "name", rowSet.Columns[1].Name)
}

func TestGetPageRejectsBadArguments(t *testing.T) {
	_, err := GetPage(context.Background(), nil, "items", 0, 50)
	assert.ErrorIs(t, err, client.ErrQuery)
	_, err = GetPage(context.Background(), nil, "items", 1, 0)
	assert.ErrorIs(t, err, client.ErrQuery)
}

func TestGetPageMissingTable(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	defer gw.Close()
	conn := connectTo(t, gw)

	_, err := GetPage(context.Background(), conn, "missing", 1, 10)
	assert.ErrorIs(t, err, client.ErrQuery)
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{"0-49/1234", 1234, false},
		{"*/0", 0, false},
		{"0-0/1", 1, false},
		{"", 0, true},
		{"0-49", 0, true},
		{"0-49/*", 0, true},
	}
	for _, tt := range tests {
		total, err := parseContentRange(tt.header)
		if tt.wantErr {
			assert.Errorf(t, err, "header %q", tt.header)
			continue
		}
		require.NoErrorf(t, err, "header %q", tt.header)
		assert.Equal(t, tt.want, total)
	}
}

func TestNormalizeFields(t *testing.T) {
	fields := map[string]any{
		"name":  "",
		"title": "kept",
		"count": 3,
		"flag":  false,
		"blob":  nil,
	}
	normalized := NormalizeFields(fields)

	assert.Nil(t, normalized["name"], "empty string submits as null")
	assert.Equal(t, "kept", normalized["title"])
	assert.Equal(t, 3, normalized["count"])
	assert.Equal(t, false, normalized["flag"])
	assert.Nil(t, normalized["blob"])
	assert.Len(t, normalized, len(fields), "no fields are dropped")
}

func TestInsertRowNormalizesEmptyStrings(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"people": {},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	err := InsertRow(context.Background(), conn, "people", map[string]any{
		"name":  "O'Brien",
		"email": "",
	})
	require.NoError(t, err)

	require.Len(t, gw.Inserts["people"], 1)
	sent := gw.Inserts["people"][0]
	assert.Equal(t, "O'Brien", sent["name"])
	value, present := sent["email"]
	assert.True(t, present, "the field is submitted, as null")
	assert.Nil(t, value)
}

func TestInsertRowSurfacesGatewayError(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	defer gw.Close()
	conn := connectTo(t, gw)

	err := InsertRow(context.Background(), conn, "missing", map[string]any{"x": 1})
	require.ErrorIs(t, err, client.ErrWrite)
	assert.Contains(t, err.Error(), "failed to insert row")
	assert.Contains(t, err.Error(), "does not exist", "gateway message is preserved verbatim")
}

func TestUpdateRowScopesByKey(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"people": {{"id": 1, "name": "a"}},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	err := UpdateRow(context.Background(), conn, "people", map[string]any{"name": "b"}, "id", 1)
	require.NoError(t, err)

	queries := gw.Queries["PATCH /rest/v1/people"]
	require.Len(t, queries, 1)
	assert.Equal(t, "id=eq.1", queries[0])
}

func TestDeleteRowScopesByKey(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"people": {{"id": 1}},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	err := DeleteRow(context.Background(), conn, "people", "id", "abc")
	require.NoError(t, err)

	queries := gw.Queries["DELETE /rest/v1/people"]
	require.Len(t, queries, 1)
	assert.Equal(t, "id=eq.abc", queries[0])
}
