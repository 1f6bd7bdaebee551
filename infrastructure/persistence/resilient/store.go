// Package resilient decorates a path store with a circuit breaker, an
// optional per-call timeout and operation metrics.
package resilient

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ideatracker/application/ports"
	"ideatracker/infrastructure/persistence/keypath"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/observability"
)

// Config holds configuration for the store circuit breaker
type Config struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration // how long the breaker stays open
	FailureThreshold float64
	MinRequests      uint32
	CallTimeout      time.Duration // per call deadline, 0 for none
}

// DefaultConfig returns a default configuration for the store breaker
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Store wraps a ports.PathStore. Every failure it returns is classified:
// bad paths as Validation, everything remote as Network.
type Store struct {
	next    ports.PathStore
	cb      *gobreaker.CircuitBreaker
	cfg     Config
	metrics observability.Recorder
	logger  *zap.Logger
}

// New creates a resilient store around next
func New(next ports.PathStore, cfg Config, metrics observability.Recorder, logger *zap.Logger) *Store {
	s := &Store{
		next:    next,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Store circuit breaker changed state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the store's health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return s
}

// State reports the breaker state; used by readiness checks.
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}

type getResult struct {
	value []byte
	found bool
}

// Get implements ports.PathStore
func (s *Store) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if err := keypath.Validate(path); err != nil {
		return nil, false, pkgerrors.NewValidationError(err.Error())
	}

	res, err := s.do(ctx, "get", func(ctx context.Context) (interface{}, error) {
		value, found, err := s.next.Get(ctx, path)
		if err != nil {
			return nil, err
		}
		return getResult{value: value, found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	r := res.(getResult)
	return r.value, r.found, nil
}

// Set implements ports.PathStore
func (s *Store) Set(ctx context.Context, path string, value []byte) error {
	if err := keypath.Validate(path); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	_, err := s.do(ctx, "set", func(ctx context.Context) (interface{}, error) {
		return nil, s.next.Set(ctx, path, value)
	})
	return err
}

func (s *Store) do(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	timer := s.metrics.StartTimer("store_duration", op)
	defer timer.Stop()

	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	res, err := s.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		s.metrics.Increment("store_errors", op)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.NewNetworkError("store unavailable", err)
		}
		return nil, pkgerrors.AsNetwork("store "+op+" failed", err)
	}
	s.metrics.Increment("store_success", op)
	return res, nil
}
