package discover

import (
	"context"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/schema"
)

// Candidate name parts for the brute-force pass: every prefix+stem+suffix
// combination no longer than maxCandidateLen is probed.
var (
	brutePrefixes = []string{"", "app_", "tbl_", "user_", "data_", "main_"}

	bruteStems = []string{
		"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
		"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
		"user", "post", "order", "item", "data", "test", "main", "info",
		"log", "tmp", "app", "web", "api", "db",
	}

	bruteSuffixes = []string{"", "s", "es", "_data", "_list", "_table"}
)

const maxCandidateLen = 20

// BruteForceStrategy is the last resort: it probes the full cross product
// of prefixes, stems, and suffixes, one request at a time. Worst case is
// len(prefixes)*len(stems)*len(suffixes) requests (~1440), bounded further
// by the shared probe budget. The pass is exhaustive by design: a hit does
// not stop the iteration, so one run collects every guessable table.
type BruteForceStrategy struct {
	budget *budget
}

// NewBruteForceStrategy returns a brute-force strategy with its own probe
// budget (0 = unbounded).
func NewBruteForceStrategy(probeBudget int) *BruteForceStrategy {
	return &BruteForceStrategy{budget: newBudget(probeBudget)}
}

func (s *BruteForceStrategy) Name() string { return "brute_force" }

func (s *BruteForceStrategy) Discover(ctx context.Context, conn *client.Connection) ([]schema.Table, error) {
	var tables []schema.Table
	for _, prefix := range brutePrefixes {
		for _, stem := range bruteStems {
			for _, suffix := range bruteSuffixes {
				if ctx.Err() != nil {
					return tables, ctx.Err()
				}
				name := prefix + stem + suffix
				if len(name) > maxCandidateLen {
					continue
				}
				if !s.budget.take() {
					return tables, nil
				}
				if probeTable(ctx, conn, s.Name(), name) {
					tables = append(tables, baseTable(name))
				}
			}
		}
	}
	return tables, nil
}

// Candidates returns the full filtered cross product in probe order.
// Exposed for budget planning; Discover probes exactly this list.
func (s *BruteForceStrategy) Candidates() []string {
	var names []string
	for _, prefix := range brutePrefixes {
		for _, stem := range bruteStems {
			for _, suffix := range bruteSuffixes {
				if name := prefix + stem + suffix; len(name) <= maxCandidateLen {
					names = append(names, name)
				}
			}
		}
	}
	return names
}
