package importer

import (
	"context"
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

func TestJSONImportInsertsRows(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"t": {},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	result, err := JSON(context.Background(), conn, []byte(`{"t": {"data": [{"x":1}]}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Failed)

	require.Len(t, gw.Inserts["t"], 1, "exactly one insert against t")
	assert.EqualValues(t, 1, gw.Inserts["t"][0]["x"])
}

func TestJSONImportIgnoresSchemaSection(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"t": {},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	doc := `{"t": {"schema": [{"name":"x","data_type":"integer"}], "data": [{"x":1},{"x":2}]}}`
	result, err := JSON(context.Background(), conn, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Len(t, gw.Inserts["t"], 2)
}

func TestJSONImportRejectsMalformedDocument(t *testing.T) {
	_, err := JSON(context.Background(), nil, []byte(`[1,2,3]`))
	assert.ErrorIs(t, err, client.ErrImportValidation)

	_, err = JSON(context.Background(), nil, []byte(`not json`))
	assert.ErrorIs(t, err, client.ErrImportValidation)
}

func TestJSONImportAccumulatesRowFailures(t *testing.T) {
	gw := testutil.NewGateway(map[string][]map[string]any{
		"known": {},
	})
	defer gw.Close()
	conn := connectTo(t, gw)

	doc := `{
		"known":   {"data": [{"x":1}]},
		"unknown": {"data": [{"y":1},{"y":2}]}
	}`
	result, err := JSON(context.Background(), conn, []byte(doc))
	require.NoError(t, err, "per-row failures do not abort the import")
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed[0].Item, "unknown")
	assert.ErrorIs(t, result.Failed[0].Err, client.ErrWrite)
}

func TestFileDispatchesOnExtension(t *testing.T) {
	_, err := File(context.Background(), nil, "dump.csv", []byte("a,b"))
	assert.ErrorIs(t, err, client.ErrImportValidation)
}
