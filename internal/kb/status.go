package kb

import (
	"github.com/Aman-CERP/amankb/internal/async"
	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/search"
	"github.com/Aman-CERP/amankb/internal/store"
	"github.com/Aman-CERP/amankb/internal/telemetry"
)

// Status is a point-in-time report of the knowledge base.
type Status struct {
	Lifecycle  async.LifecycleSnapshot `json:"lifecycle"`
	Sources    []corpus.SourceStat     `json:"sources"`
	Index      *store.Stats            `json:"index,omitempty"`
	Topics     int                     `json:"topics"`
	Categories int                     `json:"categories"`
	MinScore   float64                 `json:"min_score"`
	Cache      search.CacheStats       `json:"cache"`
	Queries    *telemetry.Snapshot     `json:"queries"`
}

// Status never blocks on a load. Before the first snapshot, Sources lists
// the configured files with zero documents.
func (s *Service) Status() Status {
	st := Status{
		Lifecycle: s.lifecycle.Snapshot(),
		MinScore:  s.opts.MinScore,
		Cache:     s.cache.Stats(),
		Queries:   s.metrics.Snapshot(),
	}

	snap := s.current.Load()
	if snap == nil {
		for _, src := range s.Sources() {
			st.Sources = append(st.Sources, corpus.SourceStat{Name: src.Name, Path: src.Path})
		}
		return st
	}

	stats := snap.index.Stats()
	st.Index = &stats
	st.Sources = snap.corpus.Sources()
	st.Topics = snap.catalog.Len()
	st.Categories = len(snap.catalog.Categories())
	return st
}
