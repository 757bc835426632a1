// Package core loads dashboard and analytics results through the result cache.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huangsam/runlens/core/agg"
	"github.com/huangsam/runlens/core/partition"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/internal/iocache"
	"github.com/huangsam/runlens/internal/metrics"
	"github.com/huangsam/runlens/schema"
)

const (
	scopeDashboard = "dashboard"
	scopeAnalytics = "analytics"
)

// Aggregator is the facade over the engine and the result cache.
// Every fetch, single or bulk, shares the same cache entries.
type Aggregator struct {
	engine   *agg.Engine
	cache    *iocache.ResultCache
	notifier contract.Notifier
	ttlFor   func(schema.MetricName) time.Duration
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithNotifier sets the receiver of DataRefreshed events.
func WithNotifier(n contract.Notifier) Option {
	return func(a *Aggregator) {
		if n != nil {
			a.notifier = n
		}
	}
}

// WithTTL sets the per-metric cache TTL, e.g. Config.TTLFor.
func WithTTL(fn func(schema.MetricName) time.Duration) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.ttlFor = fn
		}
	}
}

// WithLogger sets the facade logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator wires an engine to a cache.
func NewAggregator(engine *agg.Engine, cache *iocache.ResultCache, opts ...Option) *Aggregator {
	a := &Aggregator{
		engine:   engine,
		cache:    cache,
		notifier: contract.NopNotifier{},
		ttlFor:   func(schema.MetricName) time.Duration { return 0 }, // cache default
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Engine returns the underlying engine.
func (a *Aggregator) Engine() *agg.Engine {
	return a.engine
}

// CacheStatus reports the result cache state.
func (a *Aggregator) CacheStatus() schema.CacheStatus {
	return a.cache.Status()
}

// Invalidate drops every cached result, e.g. after the catalog connection changes.
func (a *Aggregator) Invalidate() {
	a.cache.Flush()
	a.logger.Info("result cache invalidated")
}

// CacheKey returns the cache key of a metric for a query.
// Dashboard metrics are partition-aware; advanced analytics are not.
func CacheKey(metric schema.MetricName, q schema.Query) string {
	if metric.IsAdvanced() {
		return string(metric)
	}
	if metric == schema.MetricLastExecuted {
		return fmt.Sprintf("%s:%d:%s", metric, q.Limit, q.Partition.Key())
	}
	return fmt.Sprintf("%s:%s", metric, q.Partition.Key())
}

// RecomputeNotifier returns a cache recompute hook that pushes summary and trend updates.
func RecomputeNotifier(n contract.Notifier) func(key string, value any) {
	return func(key string, value any) {
		name, businessUnit, _ := strings.Cut(key, ":")
		var event schema.EventName
		switch schema.MetricName(name) {
		case schema.MetricSummary:
			event = schema.MetricsUpdateEvent
		case schema.MetricTrends:
			event = schema.TrendsUpdateEvent
		default:
			return
		}
		n.Notify(event, schema.PushUpdate{
			Metric:       schema.MetricName(name),
			BusinessUnit: businessUnit,
			Data:         value,
		})
	}
}

// computeFunc is an engine computation, e.g. (*agg.Engine).Metrics.
type computeFunc[T any] func(*agg.Engine, context.Context, schema.Query) (T, error)

// load serves one metric from the cache or computes it.
// The compute is detached from cancellation so an abandoned load still fills the cache.
func load[T any](ctx context.Context, a *Aggregator, metric schema.MetricName, q schema.Query, fn computeFunc[T]) (T, error) {
	key := CacheKey(metric, q)
	return iocache.GetOrCompute(ctx, a.cache, key, a.ttlFor(metric), func(ctx context.Context) (T, error) {
		markRecomputed(ctx)
		a.logger.Debug("computing metric", zap.String("key", key), zap.String("scope", loadScope(ctx)))
		return fn(a.engine, context.WithoutCancel(ctx), q)
	})
}

func anyOf[T any](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// dashboardQuery builds the query of a dashboard metric for a business unit.
func (a *Aggregator) dashboardQuery(metric schema.MetricName, businessUnit string) schema.Query {
	q := schema.Query{Partition: partition.ToFilterPredicate(businessUnit)}
	if metric == schema.MetricLastExecuted {
		q.Limit = a.engine.Options().LastExecutedLimit
	}
	return q
}

// Fetch returns one metric. businessUnit is ignored for advanced analytics.
func (a *Aggregator) Fetch(ctx context.Context, metric schema.MetricName, businessUnit string) (any, error) {
	q := a.dashboardQuery(metric, businessUnit)
	if metric.IsAdvanced() {
		q = schema.Query{}
	}

	switch metric {
	case schema.MetricSummary:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Metrics))
	case schema.MetricTrends:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Trends))
	case schema.MetricErrors:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Errors))
	case schema.MetricExecutions:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Executions))
	case schema.MetricLastExecuted:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).LastExecuted))
	case schema.MetricCurrentExecutions:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).CurrentExecutions))
	case schema.MetricPackagePerformance:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).PackagePerformance))
	case schema.MetricFailurePatterns:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).FailurePatterns))
	case schema.MetricTimeline:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Timeline))
	case schema.MetricReliability:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Reliability))
	case schema.MetricMTBF:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).MTBF))
	case schema.MetricErrorClusters:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).ErrorClusters))
	case schema.MetricSLACompliance:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).SLACompliance))
	case schema.MetricPerformanceTrends:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).PerformanceTrends))
	case schema.MetricHeatmap:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Heatmap))
	case schema.MetricCorrelation:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).Correlation))
	case schema.MetricResourceUtilization:
		return anyOf(load(ctx, a, metric, q, (*agg.Engine).ResourceUtilization))
	}
	return nil, fmt.Errorf("unknown metric %q", metric)
}

// LoadDashboard computes every dashboard metric of a business unit concurrently.
// Any failure fails the whole load; no partial snapshot is returned.
func (a *Aggregator) LoadDashboard(ctx context.Context, businessUnit string) (schema.DashboardSnapshot, error) {
	start := time.Now()
	snap, err := a.loadDashboard(ctx, businessUnit)
	metrics.ObserveLoad(scopeDashboard, time.Since(start), err)
	return snap, err
}

func (a *Aggregator) loadDashboard(ctx context.Context, businessUnit string) (schema.DashboardSnapshot, error) {
	var recomputed atomic.Bool
	ctx = withLoadScope(withRecomputeFlag(ctx, &recomputed), scopeDashboard)

	q := a.dashboardQuery(schema.MetricSummary, businessUnit)
	lastQ := a.dashboardQuery(schema.MetricLastExecuted, businessUnit)
	snap := &schema.DashboardSnapshot{BusinessUnit: q.Partition.Key()}

	var g errgroup.Group
	g.Go(func() (err error) {
		snap.Metrics, err = load(ctx, a, schema.MetricSummary, q, (*agg.Engine).Metrics)
		return err
	})
	g.Go(func() (err error) {
		snap.Trends, err = load(ctx, a, schema.MetricTrends, q, (*agg.Engine).Trends)
		return err
	})
	g.Go(func() (err error) {
		snap.RecentErrors, err = load(ctx, a, schema.MetricErrors, q, (*agg.Engine).Errors)
		return err
	})
	g.Go(func() (err error) {
		snap.RecentExecutions, err = load(ctx, a, schema.MetricExecutions, q, (*agg.Engine).Executions)
		return err
	})
	g.Go(func() (err error) {
		snap.LastExecuted, err = load(ctx, a, schema.MetricLastExecuted, lastQ, (*agg.Engine).LastExecuted)
		return err
	})
	g.Go(func() (err error) {
		snap.CurrentExecutions, err = load(ctx, a, schema.MetricCurrentExecutions, q, (*agg.Engine).CurrentExecutions)
		return err
	})
	g.Go(func() (err error) {
		snap.PackagePerformance, err = load(ctx, a, schema.MetricPackagePerformance, q, (*agg.Engine).PackagePerformance)
		return err
	})
	g.Go(func() (err error) {
		snap.FailurePatterns, err = load(ctx, a, schema.MetricFailurePatterns, q, (*agg.Engine).FailurePatterns)
		return err
	})
	g.Go(func() (err error) {
		snap.Timeline, err = load(ctx, a, schema.MetricTimeline, q, (*agg.Engine).Timeline)
		return err
	})

	if err := wait(ctx, scopeDashboard, &g); err != nil {
		a.logger.Warn("dashboard load failed", zap.String("businessUnit", snap.BusinessUnit), zap.Error(err))
		return schema.DashboardSnapshot{}, err
	}
	snap.GeneratedAt = a.engine.Now()
	if recomputed.Load() {
		a.notifier.Notify(schema.DataRefreshedEvent, schema.RefreshNotice{
			Scope:        scopeDashboard,
			BusinessUnit: snap.BusinessUnit,
			GeneratedAt:  snap.GeneratedAt,
		})
	}
	return *snap, nil
}

// LoadAdvancedAnalytics computes every advanced analytic concurrently with the same all-or-fail policy.
func (a *Aggregator) LoadAdvancedAnalytics(ctx context.Context) (schema.AdvancedSnapshot, error) {
	start := time.Now()
	snap, err := a.loadAdvancedAnalytics(ctx)
	metrics.ObserveLoad(scopeAnalytics, time.Since(start), err)
	return snap, err
}

func (a *Aggregator) loadAdvancedAnalytics(ctx context.Context) (schema.AdvancedSnapshot, error) {
	var recomputed atomic.Bool
	ctx = withLoadScope(withRecomputeFlag(ctx, &recomputed), scopeAnalytics)

	var q schema.Query
	snap := &schema.AdvancedSnapshot{}

	var g errgroup.Group
	g.Go(func() (err error) {
		snap.Reliability, err = load(ctx, a, schema.MetricReliability, q, (*agg.Engine).Reliability)
		return err
	})
	g.Go(func() (err error) {
		snap.MTBF, err = load(ctx, a, schema.MetricMTBF, q, (*agg.Engine).MTBF)
		return err
	})
	g.Go(func() (err error) {
		snap.ErrorClusters, err = load(ctx, a, schema.MetricErrorClusters, q, (*agg.Engine).ErrorClusters)
		return err
	})
	g.Go(func() (err error) {
		snap.SLACompliance, err = load(ctx, a, schema.MetricSLACompliance, q, (*agg.Engine).SLACompliance)
		return err
	})
	g.Go(func() (err error) {
		snap.PerformanceTrends, err = load(ctx, a, schema.MetricPerformanceTrends, q, (*agg.Engine).PerformanceTrends)
		return err
	})
	g.Go(func() (err error) {
		snap.Heatmap, err = load(ctx, a, schema.MetricHeatmap, q, (*agg.Engine).Heatmap)
		return err
	})
	g.Go(func() (err error) {
		snap.Correlation, err = load(ctx, a, schema.MetricCorrelation, q, (*agg.Engine).Correlation)
		return err
	})
	g.Go(func() (err error) {
		snap.ResourceUtilization, err = load(ctx, a, schema.MetricResourceUtilization, q, (*agg.Engine).ResourceUtilization)
		return err
	})

	if err := wait(ctx, scopeAnalytics, &g); err != nil {
		a.logger.Warn("analytics load failed", zap.Error(err))
		return schema.AdvancedSnapshot{}, err
	}
	snap.GeneratedAt = a.engine.Now()
	if recomputed.Load() {
		a.notifier.Notify(schema.DataRefreshedEvent, schema.RefreshNotice{
			Scope:       scopeAnalytics,
			GeneratedAt: snap.GeneratedAt,
		})
	}
	return *snap, nil
}

// wait joins a load. A caller that goes away gets its context error at once;
// the computations keep running and populate the cache.
func wait(ctx context.Context, scope string, g *errgroup.Group) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return contract.NewDataSourceError("load "+scope, ctx.Err())
	}
}
