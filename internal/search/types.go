// Package search ranks corpus documents against free-text queries by
// cosine similarity over TF-IDF vectors and memoizes the rankings per
// corpus generation.
package search

// Defaults for ranking and caching.
const (
	// DefaultMinScore drops results that share only noise with the query.
	DefaultMinScore = 0.05

	// DefaultCacheSize bounds the number of memoized result lists.
	DefaultCacheSize = 256
)

// Result is one ranked document.
type Result struct {
	DocumentID int     `json:"document_id"`
	Score      float64 `json:"score"`
	Topic      string  `json:"topic"`
	Category   string  `json:"category,omitempty"`
	Question   string  `json:"question"`
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	// Answer is the document's "answer" metadata value, when present.
	Answer string `json:"answer,omitempty"`
}

// EngineConfig configures ranking.
type EngineConfig struct {
	// MinScore is the relevance threshold; lower-scoring documents are
	// never returned. Zero means DefaultMinScore.
	MinScore float64
}

// DefaultEngineConfig returns the default ranking configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{MinScore: DefaultMinScore}
}

// CacheStats reports ResultCache counters.
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Stale    int64 `json:"stale"`
	Entries  int   `json:"entries"`
	Capacity int   `json:"capacity"`
}

// HitRate returns hits over lookups, in [0,1].
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
