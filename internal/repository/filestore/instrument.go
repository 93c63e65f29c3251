package filestore

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gleejeyly/storefront/internal/repository/filestore"

var (
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "filestore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of collection file operations",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"collection", "operation", "outcome"},
	)

	collectionRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "filestore",
			Name:      "records",
			Help:      "Number of records in a collection as of the last read or write",
		},
		[]string{"collection"},
	)
)

var slowOpCfg struct {
	mu        sync.RWMutex
	threshold time.Duration
}

// SetSlowOperationLogging makes collections log a warning for any file
// operation that takes at least threshold. Zero disables it.
func SetSlowOperationLogging(threshold time.Duration) {
	slowOpCfg.mu.Lock()
	defer slowOpCfg.mu.Unlock()
	slowOpCfg.threshold = threshold
}

func slowOperationThreshold() time.Duration {
	slowOpCfg.mu.RLock()
	defer slowOpCfg.mu.RUnlock()
	return slowOpCfg.threshold
}

// collectionName is the metric label for a collection file: its base name
// without extension.
func collectionName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// instrument starts a span for a collection operation. The returned function
// must be called with the operation's error when it completes.
func (c *Collection[T]) instrument(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "filestore."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("filestore.collection", c.name),
			attribute.String("filestore.operation", operation),
			attribute.String("filestore.path", c.path),
		),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		operationDuration.WithLabelValues(c.name, operation, outcome).Observe(elapsed.Seconds())

		if threshold := slowOperationThreshold(); threshold > 0 && elapsed >= threshold {
			attrs := []any{
				slog.String("collection", c.name),
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			c.logger.WarnContext(ctx, "slow collection operation", attrs...)
		}
	}
}

func (c *Collection[T]) observeSize(n int) {
	collectionRecords.WithLabelValues(c.name).Set(float64(n))
}
