package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CircularBuffer Tests
// =============================================================================

func TestCircularBuffer_MaintainsCapacity(t *testing.T) {
	buf := NewCircularBuffer[string](3)

	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		buf.Add(q)
	}

	// Then: the last three survive, oldest first
	assert.Equal(t, []string{"q3", "q4", "q5"}, buf.Items())
	assert.Equal(t, 3, buf.Size())
}

func TestCircularBuffer_EmptyItems(t *testing.T) {
	buf := NewCircularBuffer[string](10)

	items := buf.Items()
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestCircularBuffer_Clear(t *testing.T) {
	buf := NewCircularBuffer[string](2)
	buf.Add("a")
	buf.Add("b")
	buf.Add("c")

	buf.Clear()
	buf.Add("d")

	assert.Equal(t, []string{"d"}, buf.Items())
}

// =============================================================================
// LatencyBucket Tests
// =============================================================================

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		latency  time.Duration
		expected LatencyBucket
	}{
		{200 * time.Microsecond, BucketLt1ms},
		{time.Millisecond, BucketLt5ms},
		{4 * time.Millisecond, BucketLt5ms},
		{5 * time.Millisecond, BucketLt20ms},
		{19 * time.Millisecond, BucketLt20ms},
		{20 * time.Millisecond, BucketLt100ms},
		{100 * time.Millisecond, BucketSlow},
		{2 * time.Second, BucketSlow},
	}

	for _, tt := range tests {
		t.Run(tt.latency.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, LatencyToBucket(tt.latency))
		})
	}
}

// =============================================================================
// QueryMetrics Tests
// =============================================================================

func TestQueryMetrics_Record_Aggregates(t *testing.T) {
	// Given: a collector
	m := NewQueryMetrics(Config{})

	// When: recording searches and a topic lookup
	m.Record(QueryEvent{Kind: KindSearch, Query: "balance transfer", Terms: []string{"balance", "transfer"}, ResultCount: 2})
	m.Record(QueryEvent{Kind: KindSearch, Query: "Balance Transfer ", Terms: []string{"balance", "transfer"}, ResultCount: 2, CacheHit: true})
	m.Record(QueryEvent{Kind: KindSearch, Query: "mortgage", Terms: []string{"mortgage"}, ResultCount: 0})
	m.Record(QueryEvent{Kind: KindTopic, Query: "card_activation", ResultCount: 1})

	// Then: counts reflect every event
	s := m.Snapshot()
	assert.Equal(t, int64(4), s.TotalQueries)
	assert.Equal(t, int64(3), s.KindCounts[KindSearch])
	assert.Equal(t, int64(1), s.KindCounts[KindTopic])
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, []string{"mortgage"}, s.ZeroResultQueries)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(1), s.ExactRepeatCount)
	assert.InDelta(t, 1.0/3.0, s.CacheHitRate(), 1e-9)
	assert.InDelta(t, 25.0, s.ZeroResultPercentage(), 1e-9)
	assert.Equal(t, int64(4), s.LatencyDistribution[BucketLt1ms])

	require.Len(t, s.TopTerms, 3)
	assert.Equal(t, TermCount{Term: "balance", Count: 2}, s.TopTerms[0])
	assert.Equal(t, TermCount{Term: "transfer", Count: 2}, s.TopTerms[1])
	assert.Equal(t, "mortgage", s.TopTerms[2].Term)
}

func TestQueryMetrics_TopTermsBounded(t *testing.T) {
	m := NewQueryMetrics(Config{TopTermsCapacity: 2})

	m.Record(QueryEvent{Kind: KindSearch, Terms: []string{"a", "b", "c"}, ResultCount: 1})

	assert.Len(t, m.Snapshot().TopTerms, 2)
}

func TestQueryMetrics_EmptySnapshot(t *testing.T) {
	s := NewQueryMetrics(Config{}).Snapshot()

	assert.Zero(t, s.TotalQueries)
	assert.Zero(t, s.CacheHitRate())
	assert.Zero(t, s.ZeroResultPercentage())
	assert.NotNil(t, s.ZeroResultQueries)
}

func TestQueryMetrics_ConcurrentRecord(t *testing.T) {
	m := NewQueryMetrics(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Record(QueryEvent{Kind: KindSearch, Query: "q", Terms: []string{"q"}, ResultCount: 1})
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, int64(800), s.TotalQueries)
	assert.Equal(t, int64(799), s.ExactRepeatCount)
}
