// Package agg folds execution history into dashboard metrics and advanced analytics.
package agg

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/huangsam/runlens/core/algo"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// Options holds the windows and thresholds of every computation.
type Options struct {
	Lookback            time.Duration // default window of most computations
	RecentWindow        time.Duration // "recent" success rate for reliability
	UtilizationLookback time.Duration
	PerformanceLookback time.Duration
	TimelineLookback    time.Duration

	MinExecutions        int // per package for reliability, MTBF and SLA
	MinClusterFrequency  int
	MinCoExecutions      int
	MinDailyExecutions   int // per package per day for performance trends
	CorrelationLimit     int
	CorrelationGap       time.Duration
	ClusterMessageLength int // runes of a message used to group clusters

	RecentLimit       int // recent errors and executions
	LastExecutedLimit int
	LongRunning       time.Duration
	SLAPercentile     float64
	SLAHeadroom       float64 // multiplier applied to the percentile
}

// DefaultOptions returns the standard windows and thresholds.
func DefaultOptions() Options {
	return Options{
		Lookback:             30 * 24 * time.Hour,
		RecentWindow:         7 * 24 * time.Hour,
		UtilizationLookback:  7 * 24 * time.Hour,
		PerformanceLookback:  14 * 24 * time.Hour,
		TimelineLookback:     24 * time.Hour,
		MinExecutions:        contract.DefaultMinExecutions,
		MinClusterFrequency:  3,
		MinCoExecutions:      3,
		MinDailyExecutions:   2,
		CorrelationLimit:     20,
		CorrelationGap:       60 * time.Minute,
		ClusterMessageLength: 200,
		RecentLimit:          contract.DefaultResultLimit,
		LastExecutedLimit:    10,
		LongRunning:          30 * time.Minute,
		SLAPercentile:        0.95,
		SLAHeadroom:          1.2,
	}
}

// Engine runs the computations against an execution store.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	store  contract.ExecutionStore
	clock  clock.Clock
	opts   Options
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to resolve "now".
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithOptions replaces the default windows and thresholds.
func WithOptions(o Options) Option {
	return func(e *Engine) { e.opts = o }
}

// WithMinExecutions overrides the per-package sample floor.
func WithMinExecutions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.opts.MinExecutions = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine reading from store.
func NewEngine(store contract.ExecutionStore, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		clock:  clock.New(),
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the current time of the engine clock in UTC.
func (e *Engine) Now() time.Time {
	return e.clock.Now().UTC()
}

// Options returns the windows and thresholds in effect.
func (e *Engine) Options() Options {
	return e.opts
}

// window resolves the lookback of q and returns its start.
func (e *Engine) window(q schema.Query, fallback time.Duration) time.Time {
	lookback := q.Lookback
	if lookback <= 0 {
		lookback = fallback
	}
	return e.Now().Add(-lookback)
}

func limitOr(q schema.Query, fallback int) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return fallback
}

// executions reads rows and normalizes untyped store failures.
func (e *Engine) executions(ctx context.Context, op string, q schema.ExecutionQuery) ([]schema.ExecutionRecord, error) {
	rows, err := e.store.ListExecutions(ctx, q)
	if err != nil {
		return nil, asDataSourceError(op, err)
	}
	e.logger.Debug("executions loaded", zap.String("op", op), zap.Int("rows", len(rows)))
	return rows, nil
}

// events reads rows and normalizes untyped store failures.
func (e *Engine) events(ctx context.Context, op string, q schema.EventQuery) ([]schema.EventMessage, error) {
	rows, err := e.store.ListEvents(ctx, q)
	if err != nil {
		return nil, asDataSourceError(op, err)
	}
	e.logger.Debug("events loaded", zap.String("op", op), zap.Int("rows", len(rows)))
	return rows, nil
}

func asDataSourceError(op string, err error) error {
	if contract.IsTyped(err) {
		return err
	}
	return contract.NewDataSourceError(op, err)
}

// elapsed counts unit boundaries between the start and end of r.
// Running work is measured through now. A recorded end before the start is a ComputationError.
func elapsed(op string, r schema.ExecutionRecord, now time.Time, unit time.Duration) (int64, error) {
	if r.EndTime == nil {
		if now.Before(r.StartTime) {
			return 0, nil
		}
		return algo.DateDiff(r.StartTime, now, unit), nil
	}
	if r.EndTime.Before(r.StartTime) {
		return 0, contract.NewComputationError(op,
			fmt.Sprintf("execution %d of %s ends before it starts", r.ExecutionID, r.PackageName), nil)
	}
	return algo.DateDiff(r.StartTime, *r.EndTime, unit), nil
}

func ptr[T any](v T) *T {
	return &v
}
