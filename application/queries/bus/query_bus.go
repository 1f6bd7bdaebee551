package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"

	"ideatracker/application/ports"
	"ideatracker/pkg/observability"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// CacheKeyer is implemented by queries whose results may be cached. The key
// must identify the owning user and the record (or collection) read.
type CacheKeyer interface {
	CacheKey() string
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// Middleware decorates a query handler.
type Middleware func(next QueryHandler) QueryHandler

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// NewQueryBus creates a new query bus. Middlewares wrap every registered
// handler, the first one outermost.
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no handler registered for query type %T", query)
	}

	result, err := handler.Handle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query handler failed: %w", err)
	}

	return result, nil
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// CachingMiddleware serves repeated queries from a short lived cache. Only
// queries implementing CacheKeyer are cached and failures are never stored.
func CachingMiddleware(cache ports.Cache, ttl time.Duration, metrics observability.Recorder) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			keyer, ok := query.(CacheKeyer)
			if !ok || ttl <= 0 {
				return next.Handle(ctx, query)
			}
			cacheKey := keyer.CacheKey()

			if cached, found := cache.Get(ctx, cacheKey); found {
				metrics.Increment("cache", "hit")
				return cached, nil
			}
			metrics.Increment("cache", "miss")

			result, err := next.Handle(ctx, query)
			if err != nil {
				return nil, err
			}

			_ = cache.Set(ctx, cacheKey, result, ttl)
			return result, nil
		})
	}
}

// MetricsMiddleware counts and times every query.
func MetricsMiddleware(metrics observability.Recorder) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			queryType := reflect.TypeOf(query).Name()

			timer := metrics.StartTimer("query_duration", queryType)
			defer timer.Stop()

			metrics.Increment("query_count", queryType)

			result, err := next.Handle(ctx, query)
			if err != nil {
				metrics.Increment("query_errors", queryType)
				return nil, err
			}

			metrics.Increment("query_success", queryType)
			return result, nil
		})
	}
}

// TracingMiddleware records a subsegment per query.
func TracingMiddleware(tracer *observability.Tracer) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			var result interface{}
			err := tracer.TraceFunction(ctx, reflect.TypeOf(query).Name(), func(ctx context.Context) error {
				var err error
				result, err = next.Handle(ctx, query)
				return err
			})
			return result, err
		})
	}
}

// LoggingMiddleware logs failed queries. Successful reads are not logged.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			result, err := next.Handle(ctx, query)
			if err != nil {
				logger.Debug("Query failed",
					zap.String("type", reflect.TypeOf(query).Name()),
					zap.Error(err),
				)
			}
			return result, err
		})
	}
}
