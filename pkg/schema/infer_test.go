package schema

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/operator888/supactl/internal/testutil"
	"github.com/operator888/supactl/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, TypeText},
		{true, TypeBoolean},
		{json.Number("3"), TypeInteger},
		{json.Number("3.5"), TypeNumeric},
		{"hello", TypeText},
		{"a1b2c3d4-e5f6-7890-abcd-ef1234567890", TypeUUID},
		{"2024-01-01T00:00:00", TypeTimestamp},
		{map[string]any{"a": json.Number("1")}, TypeJSONB},
		{[]any{json.Number("1"), json.Number("2")}, TypeJSONB},
		// float-decoded numbers behave the same as json.Number
		{float64(3), TypeInteger},
		{3.5, TypeNumeric},
		// near-misses stay text
		{"a1b2c3d4-e5f6-7890-abcd-ef12345678zz", TypeText},
		{"2024-01-01", TypeText},
		{"not-a-uuid-but-36-characters-long!!!", TypeText},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, InferType(tt.value), "value %#v", tt.value)
	}
}

func TestDecodeFirstRowPreservesFieldOrder(t *testing.T) {
	// deliberately non-alphabetical field order
	body := []byte(`[{"zeta":1,"alpha":"x","mid":true}]`)
	fields, values, err := decodeFirstRow(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, fields)
	assert.Equal(t, json.Number("1"), values["zeta"])
	assert.Equal(t, true, values["mid"])
}

func TestDecodeFirstRowEmptyArray(t *testing.T) {
	fields, values, err := decodeFirstRow([]byte(`[]`))
	require.NoError(t, err)
	assert.Nil(t, fields)
	assert.Nil(t, values)
}

func TestDecodeFirstRowRejectsNonArray(t *testing.T) {
	_, _, err := decodeFirstRow([]byte(`{"paths":{}}`))
	assert.Error(t, err)
}

func connectTo(t *testing.T, gw *testutil.Gateway) *client.Connection {
	t.Helper()
	conn, err := client.Connect(context.Background(), gw.URL(), "key",
		client.WithHostPattern(testutil.AnyHost))
	require.NoError(t, err)
	return conn
}

func TestInferColumns(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"events": {{
			"id":         1,
			"name":       "deploy",
			"ok":         true,
			"payload":    map[string]any{"version": "v2"},
			"created_at": "2024-01-01T00:00:00+00:00",
		}},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	columns, err := Infer(context.Background(), conn, "events")
	require.NoError(t, err)
	require.Len(t, columns, 5)

	// the fake encodes rows with encoding/json, so fields arrive in
	// alphabetical order and positions follow that order
	byName := map[string]Column{}
	for i, col := range columns {
		assert.Equal(t, i+1, col.Position)
		assert.True(t, col.IsNullable, "sampled columns always report nullable")
		byName[col.Name] = col
	}
	assert.Equal(t, TypeTimestamp, byName["created_at"].DataType)
	assert.Equal(t, TypeInteger, byName["id"].DataType)
	assert.Equal(t, TypeText, byName["name"].DataType)
	assert.Equal(t, TypeBoolean, byName["ok"].DataType)
	assert.Equal(t, TypeJSONB, byName["payload"].DataType)
}

func TestInferEmptyTable(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"empty": {},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	columns, err := Infer(context.Background(), conn, "empty")
	require.NoError(t, err)
	assert.Empty(t, columns, "schema of an empty table cannot be inferred from samples")
	// the limit-1 sample plus the zero-limit access check
	assert.Equal(t, 2, gw.RequestCount("GET /rest/v1/empty"))
}

func TestInferInaccessibleTable(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{})
	defer gw.Close()
	conn := connectTo(t, gw)

	_, err := Infer(context.Background(), conn, "missing")
	assert.ErrorIs(t, err, client.ErrTableAccess)
}

func TestDedupe(t *testing.T) {
	tables := []Table{
		{Name: "users", Schema: "public", Type: TypeTable},
		{Name: "orders", Schema: "public", Type: TypeTable},
		{Name: "users", Schema: "public", Type: TypeTable},
	}
	deduped := Dedupe(tables)
	require.Len(t, deduped, 2)
	assert.Equal(t, "users", deduped[0].Name)
	assert.Equal(t, "orders", deduped[1].Name)
}
