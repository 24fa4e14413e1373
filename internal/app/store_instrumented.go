package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/observability"
)

type instrumentedStore struct {
	backend string
	inner   docstore.Store
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// instrumentStore wraps every store call in a span and records its latency
// and outcome. Ping and Close pass straight through.
func instrumentStore(backend StoreBackend, inner docstore.Store, metrics *observability.Metrics) docstore.Store {
	if inner == nil {
		return nil
	}
	return &instrumentedStore{
		backend: string(backend),
		inner:   inner,
		metrics: metrics,
		tracer:  observability.Tracer(),
	}
}

func (s *instrumentedStore) Get(ctx context.Context, path string) (docstore.Snapshot, error) {
	ctx, span, start := s.begin(ctx, "get", path)
	snap, err := s.inner.Get(ctx, path)
	s.end(span, "get", err, time.Since(start))
	return snap, err
}

func (s *instrumentedStore) Set(ctx context.Context, path string, value any) error {
	ctx, span, start := s.begin(ctx, "set", path)
	err := s.inner.Set(ctx, path, value)
	s.end(span, "set", err, time.Since(start))
	return err
}

func (s *instrumentedStore) Remove(ctx context.Context, path string) error {
	ctx, span, start := s.begin(ctx, "remove", path)
	err := s.inner.Remove(ctx, path)
	s.end(span, "remove", err, time.Since(start))
	return err
}

func (s *instrumentedStore) NextKey(ctx context.Context, path string) (int64, error) {
	ctx, span, start := s.begin(ctx, "next_key", path)
	key, err := s.inner.NextKey(ctx, path)
	s.end(span, "next_key", err, time.Since(start))
	return key, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

func (s *instrumentedStore) Close() error { return s.inner.Close() }

func (s *instrumentedStore) begin(ctx context.Context, op, path string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "docstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("docstore.backend", s.backend),
			attribute.String("docstore.path", path),
		),
	)
	return ctx, span, time.Now()
}

func (s *instrumentedStore) end(span trace.Span, op string, err error, dur time.Duration) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.metrics.ObserveStoreOperation(s.backend, op, err, dur)
}
