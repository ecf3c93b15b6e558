package submit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mapscraper/internal/domain"
	"mapscraper/internal/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

var testMetrics = monitoring.NewMetrics()

type fakeSink struct {
	chunks [][]domain.BusinessRecord
	err    error
	calls  int
}

func (f *fakeSink) SubmitChunk(ctx context.Context, records []domain.BusinessRecord) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	chunk := make([]domain.BusinessRecord, len(records))
	copy(chunk, records)
	f.chunks = append(f.chunks, chunk)
	return nil
}

type fakeDeadLetters struct {
	dropped [][]domain.BusinessRecord
	reasons []string
}

func (f *fakeDeadLetters) SaveDroppedChunk(ctx context.Context, records []domain.BusinessRecord, reason string) error {
	f.dropped = append(f.dropped, records)
	f.reasons = append(f.reasons, reason)
	return nil
}

func makeRecords(n int) []domain.BusinessRecord {
	records := make([]domain.BusinessRecord, n)
	for i := range records {
		records[i] = domain.BusinessRecord{
			QueryID: "7",
			Name:    fmt.Sprintf("Business %03d", i),
		}
	}
	return records
}

func TestAddFlushesFullChunksOnly(t *testing.T) {
	sink := &fakeSink{}
	s := NewSubmitter(sink, nil, 20, 3, 0, testMetrics, zap.NewNop())

	s.Add(context.Background(), makeRecords(45)...)

	require.Len(t, sink.chunks, 2)
	assert.Len(t, sink.chunks[0], 20)
	assert.Len(t, sink.chunks[1], 20)
	assert.Equal(t, 5, s.Pending())
}

func TestDrainFlushesPartialChunk(t *testing.T) {
	sink := &fakeSink{}
	s := NewSubmitter(sink, nil, 20, 3, 0, testMetrics, zap.NewNop())

	s.Add(context.Background(), makeRecords(45)...)
	s.Drain(context.Background())

	require.Len(t, sink.chunks, 3)
	assert.Len(t, sink.chunks[2], 5)
	assert.Zero(t, s.Pending())
}

func TestChunksPreserveArrivalOrder(t *testing.T) {
	sink := &fakeSink{}
	s := NewSubmitter(sink, nil, 3, 1, 0, testMetrics, zap.NewNop())

	s.Add(context.Background(), makeRecords(6)...)

	require.Len(t, sink.chunks, 2)
	assert.Equal(t, "Business 000", sink.chunks[0][0].Name)
	assert.Equal(t, "Business 002", sink.chunks[0][2].Name)
	assert.Equal(t, "Business 003", sink.chunks[1][0].Name)
}

func TestFailedChunkIsDroppedAfterMaxAttempts(t *testing.T) {
	sink := &fakeSink{err: errors.New("sink unavailable")}
	deadLetters := &fakeDeadLetters{}
	s := NewSubmitter(sink, deadLetters, 20, 3, 0, testMetrics, zap.NewNop())

	s.Add(context.Background(), makeRecords(20)...)

	assert.Equal(t, 3, sink.calls, "a chunk gets exactly maxAttempts tries")
	assert.Zero(t, s.Pending(), "a dropped chunk is never requeued")
	require.Len(t, deadLetters.dropped, 1)
	assert.Len(t, deadLetters.dropped[0], 20)
	assert.Equal(t, "sink unavailable", deadLetters.reasons[0])
}

func TestDroppedChunkWithoutDeadLetterStore(t *testing.T) {
	sink := &fakeSink{err: errors.New("sink unavailable")}
	s := NewSubmitter(sink, nil, 5, 2, 0, testMetrics, zap.NewNop())

	s.Add(context.Background(), makeRecords(5)...)

	assert.Equal(t, 2, sink.calls)
	assert.Zero(t, s.Pending())
}

func TestDrainWithNothingPendingIsANoop(t *testing.T) {
	sink := &fakeSink{}
	s := NewSubmitter(sink, nil, 20, 3, 0, testMetrics, zap.NewNop())

	s.Drain(context.Background())

	assert.Zero(t, sink.calls)
}
