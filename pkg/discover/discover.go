// Package discover finds out which tables a gateway project exposes.
//
// The gateway is a data-access API, not a metadata API, so discovery is a
// cascade of independent strategies run in priority order: the first
// strategy to yield at least one table wins and the rest are skipped.
// Results are never unioned across strategies. Strategy failures are logged
// and swallowed; from the cascade's point of view a failing strategy simply
// found nothing.
package discover

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/operator888/supactl/pkg/client"
	"github.com/operator888/supactl/pkg/httputil"
	"github.com/operator888/supactl/pkg/metrics"
	"github.com/operator888/supactl/pkg/schema"
	"go.uber.org/zap"
)

// Strategy is one way of listing tables. Implementations must treat an
// inaccessible or absent table as "not found", never as a fatal error.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, conn *client.Connection) ([]schema.Table, error)
}

// Options configure the cascade.
type Options struct {
	Logger *zap.Logger
	// Strategies overrides the default chain. Order is priority order.
	Strategies []Strategy
	// ProbeBudget caps the total number of per-table probe requests the
	// dictionary and brute-force strategies may issue between them.
	// 0 applies DefaultProbeBudget; negative means unbounded.
	ProbeBudget int
}

// DefaultProbeBudget bounds the fallback strategies' probe count. The full
// brute-force cross product is ~1440 requests; the default leaves headroom
// for the dictionary pass on top.
const DefaultProbeBudget = 1500

// Tables runs the cascade and returns the deduplicated result.
//
// It never fails outright: on total failure the slice is empty and err
// reports whether the gateway was unreachable, which callers are free to
// ignore when an empty list is an acceptable answer.
func Tables(ctx context.Context, conn *client.Connection, opts *Options) ([]schema.Table, error) {
	logger := zap.NewNop()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	strategies := DefaultStrategies(opts)
	if opts != nil && opts.Strategies != nil {
		strategies = opts.Strategies
	}

	var unreachable error
	for _, s := range strategies {
		start := time.Now()
		tables, err := s.Discover(ctx, conn)
		metrics.DiscoveryDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			logger.Warn("discovery strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			if errors.Is(err, client.ErrNetwork) && unreachable == nil {
				unreachable = err
			}
			continue
		}
		if len(tables) > 0 {
			logger.Info("discovery strategy succeeded",
				zap.String("strategy", s.Name()),
				zap.Int("tables", len(tables)))
			return schema.Dedupe(tables), nil
		}
		logger.Debug("discovery strategy found nothing", zap.String("strategy", s.Name()))
	}

	if unreachable != nil {
		return []schema.Table{}, fmt.Errorf("no tables discovered: %w", unreachable)
	}
	return []schema.Table{}, nil
}

// DefaultStrategies builds the standard REST strategy chain in priority
// order, with the dictionary and brute-force strategies sharing one probe
// budget.
func DefaultStrategies(opts *Options) []Strategy {
	budget := DefaultProbeBudget
	if opts != nil && opts.ProbeBudget != 0 {
		budget = opts.ProbeBudget
	}
	if opts != nil && opts.ProbeBudget < 0 {
		budget = 0 // explicit "unbounded"
	}
	b := newBudget(budget)
	return []Strategy{
		&OpenAPIStrategy{},
		&DictionaryStrategy{budget: b},
		&IntrospectionStrategy{},
		&BruteForceStrategy{budget: b},
	}
}

// budget is a shared probe allowance for the guessing strategies. Probing
// is strictly sequential, so no locking is needed.
type budget struct {
	remaining int
	unlimited bool
}

func newBudget(n int) *budget {
	return &budget{remaining: n, unlimited: n == 0}
}

func (b *budget) take() bool {
	if b == nil || b.unlimited {
		return true
	}
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// probeTable checks whether a named table is readable with a minimal
// limit-1 request. Any error counts as "not present or not accessible".
func probeTable(ctx context.Context, conn *client.Connection, strategy, name string) bool {
	_, err := conn.Get(ctx, name, url.Values{"limit": {"1"}})
	if err != nil {
		metrics.ProbesTotal.WithLabelValues(strategy, "miss").Inc()
		return false
	}
	metrics.ProbesTotal.WithLabelValues(strategy, "hit").Inc()
	return true
}

// classifyProbeErr tags transport-level failures as network errors so the
// cascade can distinguish "gateway said no" from "gateway unreachable".
// Status errors pass through unchanged.
func classifyProbeErr(err error) error {
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return err
	}
	return fmt.Errorf("%w: %v", client.ErrNetwork, err)
}

func baseTable(name string) schema.Table {
	return schema.Table{
		Name:   name,
		Schema: schema.DefaultSchema,
		Type:   schema.TypeTable,
	}
}
