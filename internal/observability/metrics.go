package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	storeOps      *CounterVec
	storeLatency  *HistogramVec
	dispatchDepth *Gauge
	recipeWrites  *CounterVec
	redisUp       *Gauge
	redisPing     *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// New builds an unregistered registry; Init keeps the process-wide one.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("rb_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"rb_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight:   NewGauge("rb_api_inflight_requests", "In-flight API requests."),
		storeOps:      NewCounterVec("rb_store_operations_total", "Document store calls by backend/op/status.", []string{"backend", "op", "status"}),
		storeLatency:  NewHistogramVec("rb_store_operation_duration_seconds", "Document store call latency in seconds.", []string{"backend", "op"}, nil),
		dispatchDepth: NewGauge("rb_dispatch_queue_depth", "Tasks waiting in the dispatch queue."),
		recipeWrites:  NewCounterVec("rb_recipe_writes_total", "Recipe writes by kind/outcome.", []string{"kind", "outcome"}),
		redisUp:       NewGauge("rb_redis_up", "1 when the last redis ping succeeded."),
		redisPing:     NewGauge("rb_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

// Init returns the process-wide registry, or nil when metrics are off.
// Every method is safe on a nil *Metrics.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.storeOps, m.storeLatency,
		m.dispatchDepth, m.recipeWrites,
		m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveStoreOperation(backend, op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.storeOps.Inc(backend, op, status)
	m.storeLatency.Observe(dur.Seconds(), backend, op)
}

func (m *Metrics) SetDispatchQueueDepth(n int) {
	if m != nil {
		m.dispatchDepth.Set(float64(n))
	}
}

// ObserveRecipeWrite counts a write by kind (add, update, delete) and
// outcome (issued, rejected, confirmed, failed).
func (m *Metrics) ObserveRecipeWrite(kind, outcome string) {
	if m != nil {
		m.recipeWrites.Inc(strings.ToLower(kind), outcome)
	}
}

// StartRedisCollector pings rdb on an interval until ctx ends. The client
// stays owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
