package discover

import (
	"context"

	"github.com/operator888/supactl/pkg/client"
	pg "github.com/operator888/supactl/pkg/pgx"
	"github.com/operator888/supactl/pkg/schema"
)

// CatalogStrategy lists tables from information_schema over a direct
// Postgres connection. When the operator has a database connection string
// this is exact and cheap, so it belongs at the front of the cascade; it is
// never enabled implicitly because the REST credential alone cannot open a
// direct connection.
type CatalogStrategy struct {
	Conn   pg.Conn
	Schema string
}

func (s *CatalogStrategy) Name() string { return "catalog" }

func (s *CatalogStrategy) Discover(ctx context.Context, _ *client.Connection) ([]schema.Table, error) {
	schemaName := s.Schema
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}
	return schema.CatalogTables(ctx, s.Conn, schemaName)
}
