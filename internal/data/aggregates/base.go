package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// Hooks receive one ObserveWrite per aggregate call.
type Hooks interface {
	ObserveWrite(op, status string, dur time.Duration)
	IncConflict(op string)
	// IncTransient counts lock, deadlock and timeout failures. The write is
	// not rerun.
	IncTransient(op string)
}

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return d
}

// executeWrite runs fn in exactly one transaction. Snapshots and minute
// increments are not idempotent and a failed commit may still have landed, so
// a failure of any kind is returned to the caller, never rerun.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	ctx, span := observability.StartSpan(ctx, "aggregate."+op)
	defer span.End()

	mapped := MapError(op, deps.Runner.InTx(ctx, fn))

	status := aggregateErrorStatus(mapped)
	switch domainagg.CodeOf(mapped) {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeTransient:
		deps.Hooks.IncTransient(op)
	}
	deps.Hooks.ObserveWrite(op, status, time.Since(start))
	span.SetAttributes(attribute.String("aggregate.status", status))
	if mapped != nil {
		span.SetStatus(codes.Error, status)
	}
	switch status {
	case string(domainagg.CodeInternal), string(domainagg.CodeTransient):
		deps.Log.Error("aggregate write failed", "op", op, "status", status, "error", mapped)
	}
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type noopHooks struct{}

func (noopHooks) ObserveWrite(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                         {}
func (noopHooks) IncTransient(string)                        {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports aggregate writes to Prometheus. A nil metrics
// set yields hooks that do nothing.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveWrite(op, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(op, status, dur)
}

func (h metricsHooks) IncConflict(op string)  { h.metrics.IncAggregateConflict(op) }
func (h metricsHooks) IncTransient(op string) { h.metrics.IncAggregateTransient(op) }
