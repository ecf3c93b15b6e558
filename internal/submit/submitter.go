package submit

import (
	"context"
	"sync"
	"time"

	"mapscraper/internal/domain"
	"mapscraper/internal/monitoring"

	"go.uber.org/zap"
)

// SinkClient posts one chunk of records to the results sink.
type SinkClient interface {
	SubmitChunk(ctx context.Context, records []domain.BusinessRecord) error
}

// DeadLetterStore receives chunks that exhausted their submission attempts.
type DeadLetterStore interface {
	SaveDroppedChunk(ctx context.Context, records []domain.BusinessRecord, reason string) error
}

// Submitter accumulates records from in-flight queries and ships them to the
// sink in fixed-size chunks with bounded retry. Appends may come from many
// goroutines; draining is serialized so chunks leave in order. No chunk
// retries forever: past maxAttempts it is dropped, logged and dead-lettered
// rather than blocking the pipeline.
type Submitter struct {
	sink        SinkClient
	deadLetters DeadLetterStore
	chunkSize   int
	maxAttempts int
	backoff     time.Duration
	metrics     *monitoring.Metrics
	logger      *zap.Logger

	pendingMu sync.Mutex
	pending   []domain.BusinessRecord
	drainMu   sync.Mutex
}

func NewSubmitter(sink SinkClient, deadLetters DeadLetterStore, chunkSize, maxAttempts int, backoff time.Duration, m *monitoring.Metrics, l *zap.Logger) *Submitter {
	if chunkSize <= 0 {
		chunkSize = 20
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Submitter{
		sink:        sink,
		deadLetters: deadLetters,
		chunkSize:   chunkSize,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		metrics:     m,
		logger:      l,
	}
}

// Add queues records and flushes every full chunk that is ready.
func (s *Submitter) Add(ctx context.Context, records ...domain.BusinessRecord) {
	s.pendingMu.Lock()
	s.pending = append(s.pending, records...)
	s.pendingMu.Unlock()

	s.flush(ctx, s.chunkSize)
}

// Drain flushes everything left, including a final partial chunk. Called at
// run end.
func (s *Submitter) Drain(ctx context.Context) {
	s.flush(ctx, 1)
}

// Pending reports how many records are queued but not yet submitted.
func (s *Submitter) Pending() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// flush pops and submits chunks while at least minSize records are pending.
// The drain lock keeps chunk order stable when several queries finish at
// once.
func (s *Submitter) flush(ctx context.Context, minSize int) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	for {
		chunk := s.take(minSize)
		if chunk == nil {
			return
		}
		s.submitChunk(ctx, chunk)
	}
}

// take removes the oldest chunk-size slice when at least minSize records are
// pending.
func (s *Submitter) take(minSize int) []domain.BusinessRecord {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if len(s.pending) < minSize || len(s.pending) == 0 {
		return nil
	}
	n := s.chunkSize
	if len(s.pending) < n {
		n = len(s.pending)
	}
	chunk := make([]domain.BusinessRecord, n)
	copy(chunk, s.pending[:n])
	s.pending = s.pending[n:]
	return chunk
}

// submitChunk drives one chunk through its lifecycle: in flight, retrying
// with backoff on failure, acked on success, dropped once attempts run out.
func (s *Submitter) submitChunk(ctx context.Context, chunk []domain.BusinessRecord) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = s.sink.SubmitChunk(ctx, chunk)
		if lastErr == nil {
			s.metrics.ChunksSubmitted.Inc()
			return
		}

		s.logger.Warn("chunk submission failed",
			zap.Int("attempt", attempt),
			zap.Int("records", len(chunk)),
			zap.Error(lastErr))
		s.metrics.IncErrorsTotal("submit_failed")

		if attempt < s.maxAttempts && !s.wait(ctx) {
			break
		}
	}

	s.logger.Error("dropping chunk after exhausting attempts",
		zap.Int("records", len(chunk)),
		zap.Int("attempts", s.maxAttempts),
		zap.Error(lastErr))
	s.metrics.ChunksDropped.Inc()

	if s.deadLetters != nil {
		if err := s.deadLetters.SaveDroppedChunk(ctx, chunk, lastErr.Error()); err != nil {
			s.logger.Error("dead letter write failed", zap.Error(err))
		}
	}
}

func (s *Submitter) wait(ctx context.Context) bool {
	if s.backoff <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.backoff)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
