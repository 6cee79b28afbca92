// Package importer parses uploaded JSON or SQL dumps and replays them
// against the gateway as individual insert or statement executions. There
// is no transaction wrapping: each item is applied independently and a
// mid-file failure leaves earlier items applied, reported per item.
package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/export"
)

// Result summarizes an import run.
type Result struct {
	Failed    []export.ItemError
	Succeeded int
}

// File dispatches on the upload's extension: .json or .sql.
func File(ctx context.Context, conn *client.Connection, filename string, data []byte) (*Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return JSON(ctx, conn, data)
	case ".sql":
		return SQL(ctx, conn, data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", client.ErrImportValidation, filepath.Ext(filename))
	}
}
