package discover

import (
	"context"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
)

// commonTableNames is a fixed dictionary of table names that show up in
// typical application schemas. Guessing names is inherently incomplete and
// a maintenance liability, which is why this strategy only runs when the
// API document yields nothing.
var commonTableNames = []string{
	"users", "profiles", "accounts", "customers", "employees",
	"posts", "articles", "pages", "comments", "messages",
	"orders", "products", "items", "categories", "tags",
	"carts", "payments", "invoices", "subscriptions", "transactions",
	"reviews", "ratings", "likes", "follows", "friends",
	"notifications", "sessions", "events", "logs", "settings",
	"tasks", "projects", "teams", "roles", "permissions",
	"files", "images", "documents", "addresses", "contacts",
	"bookings", "appointments", "inventory", "companies", "departments",
}

// DictionaryStrategy probes each dictionary name with a limit-1 read. A
// name is accepted iff the probe succeeds, meaning the relation exists and
// the credential can read it.
type DictionaryStrategy struct {
	budget *budget
}

// NewDictionaryStrategy returns a dictionary strategy with its own probe
// budget (0 = unbounded).
func NewDictionaryStrategy(probeBudget int) *DictionaryStrategy {
	return &DictionaryStrategy{budget: newBudget(probeBudget)}
}

func (s *DictionaryStrategy) Name() string { return "dictionary" }

func (s *DictionaryStrategy) Discover(ctx context.Context, conn *client.Connection) ([]schema.Table, error) {
	var tables []schema.Table
	for _, name := range commonTableNames {
		if ctx.Err() != nil {
			return tables, ctx.Err()
		}
		if !s.budget.take() {
			break
		}
		if probeTable(ctx, conn, s.Name(), name) {
			tables = append(tables, baseTable(name))
		}
	}
	return tables, nil
}
