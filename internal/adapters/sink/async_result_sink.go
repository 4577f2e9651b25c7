package sink

import (
	"context"
	"errors"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"route-optimization-service/internal/ports"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

const (
	DefaultQueueSize = 64
	// Upper bound for a single delivery to the wrapped sink.
	DefaultSaveTimeout = 5 * time.Second
)

var ErrSinkClosed = errors.New("result sink closed")

// AsyncResultSink hands results to a wrapped sink on a background goroutine.
// SaveResult never blocks; when the queue is full the result is dropped.
type AsyncResultSink struct {
	next        ports.ResultSink
	queue       chan *domain.OptimizationResult
	saveTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	dropped atomic.Int64
	failed  atomic.Int64
	saved   atomic.Int64
}

func NewAsyncResultSink(next ports.ResultSink, queueSize int) *AsyncResultSink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	s := &AsyncResultSink{
		next:        next,
		queue:       make(chan *domain.OptimizationResult, queueSize),
		saveTimeout: DefaultSaveTimeout,
		done:        make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncResultSink) SaveResult(_ context.Context, result *domain.OptimizationResult) error {
	if result == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSinkClosed
	}

	select {
	case s.queue <- result:
	default:
		s.dropped.Inc()
		obs.SinkDropped.Inc()
		log.Warn().Str("result_id", result.ID).Msg("result sink queue full, dropping result")
	}
	return nil
}

func (s *AsyncResultSink) run() {
	defer close(s.done)

	for result := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		err := s.next.SaveResult(ctx, result)
		cancel()

		if err != nil {
			s.failed.Inc()
			log.Error().Err(err).Str("result_id", result.ID).Msg("result sink delivery failed")
			continue
		}
		s.saved.Inc()
	}
}

// Close stops accepting results and waits for queued ones to be delivered
// or for ctx to expire.
func (s *AsyncResultSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncResultSink) Dropped() int64 { return s.dropped.Load() }
func (s *AsyncResultSink) Failed() int64  { return s.failed.Load() }
func (s *AsyncResultSink) Saved() int64   { return s.saved.Load() }
