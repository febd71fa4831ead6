package store

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluree/db-sub010/internal/errs"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/store")

var storeMetrics struct {
	retryCount metric.Int64Counter
	readBytes  metric.Int64Counter
	writeBytes metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/store")
	storeMetrics.retryCount, _ = m.Int64Counter("fluree.store.retry_count",
		metric.WithDescription("storage operations retried due to transient I/O errors"),
		metric.WithUnit("{retry}"))
	storeMetrics.readBytes, _ = m.Int64Counter("fluree.store.read_bytes",
		metric.WithDescription("bytes read from the content store"),
		metric.WithUnit("By"))
	storeMetrics.writeBytes, _ = m.Int64Counter("fluree.store.write_bytes",
		metric.WithDescription("bytes written to the content store"),
		metric.WithUnit("By"))
}

// retrying wraps a Store with exponential-backoff retry of transient
// errors, the way the teacher's DoltStore.withRetry wraps SQL calls in
// server mode. Permanent errors (anything not errs.ErrTransientIO) stop
// the retry loop immediately via backoff.Permanent.
type retrying struct {
	inner Store
	cfg   RetryConfig
}

// WithRetry wraps a Store so that transient-io errors are retried with
// exponential backoff up to cfg.MaxElapsed.
func WithRetry(inner Store, cfg RetryConfig) Store {
	return &retrying{inner: inner, cfg: cfg}
}

func (r *retrying) withRetry(ctx context.Context, op string, fn func() error) error {
	ctx, span := tracer.Start(ctx, "store."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = r.cfg.MaxElapsed
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		if errs.IsTransientIO(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))

	if attempts > 1 {
		storeMetrics.retryCount.Add(ctx, int64(attempts-1), metric.WithAttributes(attribute.String("op", op)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *retrying) Write(ctx context.Context, pathPrefix string, content []byte) (WriteResult, error) {
	var res WriteResult
	err := r.withRetry(ctx, "write", func() error {
		var err error
		res, err = r.inner.Write(ctx, pathPrefix, content)
		return err
	})
	if err == nil {
		storeMetrics.writeBytes.Add(ctx, int64(len(content)))
	}
	return res, err
}

func (r *retrying) WriteAt(ctx context.Context, address Address, content []byte) error {
	err := r.withRetry(ctx, "write_at", func() error {
		return r.inner.WriteAt(ctx, address, content)
	})
	if err == nil {
		storeMetrics.writeBytes.Add(ctx, int64(len(content)))
	}
	return err
}

func (r *retrying) Read(ctx context.Context, address Address) ([]byte, error) {
	var data []byte
	err := r.withRetry(ctx, "read", func() error {
		var err error
		data, err = r.inner.Read(ctx, address)
		return err
	})
	if err == nil {
		storeMetrics.readBytes.Add(ctx, int64(len(data)))
	}
	return data, err
}

func (r *retrying) Delete(ctx context.Context, address Address) error {
	return r.withRetry(ctx, "delete", func() error {
		return r.inner.Delete(ctx, address)
	})
}

func (r *retrying) List(ctx context.Context, prefix string) ([]Address, error) {
	var out []Address
	err := r.withRetry(ctx, "list", func() error {
		var err error
		out, err = r.inner.List(ctx, prefix)
		return err
	})
	return out, err
}

func (r *retrying) ListRecursive(ctx context.Context, prefix string) ([]Address, error) {
	var out []Address
	err := r.withRetry(ctx, "list_recursive", func() error {
		var err error
		out, err = r.inner.ListRecursive(ctx, prefix)
		return err
	})
	return out, err
}
