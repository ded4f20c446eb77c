// Package telemetry keeps in-process query statistics for the knowledge
// base. Nothing is persisted or reported externally.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Defaults for QueryMetrics capacities.
const (
	DefaultTopTermsCapacity = 100
	DefaultRecentCapacity   = 100
	DefaultRepeatCapacity   = 500
)

// QueryKind identifies which operation a query event came from.
type QueryKind string

const (
	KindSearch QueryKind = "search"
	KindTopic  QueryKind = "topic"
	KindList   QueryKind = "list"
)

// LatencyBucket is a latency histogram bucket. Retrieval is in-memory, so
// buckets are finer than a network service would use.
type LatencyBucket string

const (
	BucketLt1ms   LatencyBucket = "lt_1ms"
	BucketLt5ms   LatencyBucket = "lt_5ms"
	BucketLt20ms  LatencyBucket = "lt_20ms"
	BucketLt100ms LatencyBucket = "lt_100ms"
	BucketSlow    LatencyBucket = "ge_100ms"
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < time.Millisecond:
		return BucketLt1ms
	case d < 5*time.Millisecond:
		return BucketLt5ms
	case d < 20*time.Millisecond:
		return BucketLt20ms
	case d < 100*time.Millisecond:
		return BucketLt100ms
	default:
		return BucketSlow
	}
}

// QueryEvent is one recorded query.
type QueryEvent struct {
	Kind        QueryKind
	Query       string
	Terms       []string
	ResultCount int
	CacheHit    bool
	Latency     time.Duration
}

// TermCount is a term and how often it was queried.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	TotalQueries        int64                   `json:"total_queries"`
	KindCounts          map[QueryKind]int64     `json:"kind_counts"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	CacheHits           int64                   `json:"cache_hits"`
	ExactRepeatCount    int64                   `json:"exact_repeat_count"`
	TopTerms            []TermCount             `json:"top_terms"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of searches that found nothing.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// CacheHitRate returns cache hits over searches, in [0,1].
func (s *Snapshot) CacheHitRate() float64 {
	searches := s.KindCounts[KindSearch]
	if searches == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(searches)
}

// Config sizes the bounded structures of QueryMetrics.
type Config struct {
	TopTermsCapacity    int
	ZeroResultsCapacity int
	RepeatCapacity      int
}

// QueryMetrics collects query telemetry. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	kinds       map[QueryKind]int64
	topTerms    *lru.Cache[string, int64]
	zeroResults *CircularBuffer[string]
	recent      *lru.Cache[string, struct{}]
	latencies   map[LatencyBucket]int64

	total       int64
	zeroCount   int64
	cacheHits   int64
	repeatCount int64
	start       time.Time
}

// NewQueryMetrics creates a collector; zero capacities take defaults.
func NewQueryMetrics(cfg Config) *QueryMetrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = DefaultTopTermsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = DefaultRecentCapacity
	}
	if cfg.RepeatCapacity <= 0 {
		cfg.RepeatCapacity = DefaultRepeatCapacity
	}
	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RepeatCapacity)
	return &QueryMetrics{
		kinds:       make(map[QueryKind]int64),
		topTerms:    topTerms,
		zeroResults: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		recent:      recent,
		latencies:   make(map[LatencyBucket]int64),
		start:       time.Now(),
	}
}

// Record captures one query event.
func (m *QueryMetrics) Record(e QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.kinds[e.Kind]++
	m.latencies[LatencyToBucket(e.Latency)]++

	for _, term := range e.Terms {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}
	if e.ResultCount == 0 {
		m.zeroCount++
		m.zeroResults.Add(e.Query)
	}
	if e.CacheHit {
		m.cacheHits++
	}

	key := hashQuery(string(e.Kind) + "\x00" + e.Query)
	if _, seen := m.recent.Get(key); seen {
		m.repeatCount++
	}
	m.recent.Add(key, struct{}{})
}

// hashQuery creates a normalized hash of the query for repetition detection.
func hashQuery(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:16])
}

// Snapshot returns a copy of the current metrics. TopTerms are ordered by
// count descending, then term.
func (m *QueryMetrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	kinds := make(map[QueryKind]int64, len(m.kinds))
	for k, v := range m.kinds {
		kinds[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	terms := make([]TermCount, 0, m.topTerms.Len())
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			terms = append(terms, TermCount{Term: key, Count: count})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})

	return &Snapshot{
		TotalQueries:        m.total,
		KindCounts:          kinds,
		ZeroResultCount:     m.zeroCount,
		ZeroResultQueries:   m.zeroResults.Items(),
		CacheHits:           m.cacheHits,
		ExactRepeatCount:    m.repeatCount,
		TopTerms:            terms,
		LatencyDistribution: latencies,
		Since:               m.start,
	}
}
