// Package kb ties the corpus, index, topic catalog and query engine into a
// single knowledge base service with an explicit load lifecycle.
//
// All structures derived from one corpus generation are published together
// as an immutable snapshot. Readers load the snapshot pointer once per call
// and never observe a mix of generations.
package kb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/amankb/internal/async"
	"github.com/Aman-CERP/amankb/internal/catalog"
	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/search"
	"github.com/Aman-CERP/amankb/internal/store"
	"github.com/Aman-CERP/amankb/internal/telemetry"
)

// snapshot is one fully built generation.
type snapshot struct {
	corpus  *corpus.Corpus
	index   *store.Index
	catalog *catalog.Catalog
	engine  *search.Engine
}

// Service is the knowledge base. Safe for concurrent use.
type Service struct {
	opts      Options
	logger    *slog.Logger
	tokenizer *store.Tokenizer
	docs      *corpus.Store
	cache     *search.ResultCache
	metrics   *telemetry.QueryMetrics
	lifecycle *async.Lifecycle

	current   atomic.Pointer[snapshot]
	initGroup singleflight.Group

	// reloadMu serializes builds.
	reloadMu sync.Mutex

	mu      sync.RWMutex
	sources []corpus.Source
	lastErr error
	closed  bool
}

// New creates a service. Nothing is read until the first query, Warm or
// Reload.
func New(opts Options) (*Service, error) {
	opts.applyDefaults()
	if len(opts.Sources) == 0 {
		return nil, amanerrors.ValidationError("at least one source is required", nil)
	}
	stopWords, ok := store.StopWordList(opts.StopWords)
	if !ok {
		return nil, amanerrors.ValidationError(fmt.Sprintf("unknown stop word list %q", opts.StopWords), nil)
	}

	return &Service{
		opts:      opts,
		logger:    opts.Logger,
		tokenizer: store.NewTokenizer(stopWords),
		docs:      corpus.NewStore(opts.Logger),
		cache:     search.NewResultCache(opts.CacheSize),
		metrics:   opts.Metrics,
		lifecycle: async.NewLifecycle(),
		sources:   append([]corpus.Source(nil), opts.Sources...),
	}, nil
}

// Sources returns the sources the next reload will read.
func (s *Service) Sources() []corpus.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]corpus.Source(nil), s.sources...)
}

// Warm performs the initial load if it has not happened yet.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.ready(ctx)
	return err
}

// ready returns the published snapshot, building the first one if needed.
// Callers arriving before the first snapshot share one build and wait for
// it, each bounded by its own ctx.
func (s *Service) ready(ctx context.Context) (*snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	if err := s.notReady(); err != nil {
		return nil, err
	}

	ch := s.initGroup.DoChan("init", func() (any, error) {
		s.reloadMu.Lock()
		defer s.reloadMu.Unlock()

		// An explicit Reload may have finished while we waited for the lock.
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		if err := s.notReady(); err != nil {
			return nil, err
		}
		// Detached: one impatient caller must not fail the build for the rest.
		return s.reloadLocked(context.Background(), nil)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot), nil
	}
}

// notReady reports why no snapshot can be served without an explicit
// reload, or nil when an initial load may proceed.
func (s *Service) notReady() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return amanerrors.IndexNotReadyError("closed", nil)
	}
	if s.lifecycle.State() == async.StateFailed {
		return amanerrors.IndexNotReadyError(string(async.StateFailed), s.lastErr)
	}
	return nil
}

// Reload rebuilds the knowledge base from sources, or from the current
// sources when none are given, and returns the new generation. While it
// runs, the previous snapshot keeps serving. On failure the previous
// snapshot stays published; on ctx cancellation the build is discarded.
func (s *Service) Reload(ctx context.Context, sources ...corpus.Source) (uint64, error) {
	snap, err := s.reload(ctx, sources)
	if err != nil {
		return 0, err
	}
	return snap.corpus.Generation(), nil
}

func (s *Service) reload(ctx context.Context, sources []corpus.Source) (*snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.reloadLocked(ctx, sources)
}

func (s *Service) reloadLocked(ctx context.Context, sources []corpus.Source) (*snapshot, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, amanerrors.IndexNotReadyError("closed", nil)
	}

	if len(sources) == 0 {
		sources = s.Sources()
	}

	s.lifecycle.BeginLoad()
	s.logger.Info("kb_reload_started", slog.Int("sources", len(sources)))
	start := time.Now()

	snap, err := s.build(ctx, sources)
	if err == nil && ctx.Err() != nil {
		_ = snap.catalog.Close()
		err = ctx.Err()
	}
	if err != nil {
		if ctx.Err() != nil {
			s.lifecycle.Abort()
			s.logger.Info("kb_reload_cancelled", slog.Duration("elapsed", time.Since(start)))
			return nil, ctx.Err()
		}
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.lifecycle.Fail(err)
		s.logger.Error("kb_reload_failed",
			append(amanerrors.LogAttrs(err), slog.Duration("elapsed", time.Since(start)))...)
		return nil, err
	}

	s.docs.Publish(snap.corpus)
	old := s.current.Swap(snap)
	s.mu.Lock()
	s.sources = append([]corpus.Source(nil), sources...)
	s.lastErr = nil
	s.mu.Unlock()
	s.lifecycle.Ready(snap.corpus.Generation(), snap.corpus.Len())

	if old != nil {
		if err := old.catalog.Close(); err != nil {
			s.logger.Warn("catalog_close_failed", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("kb_reload_completed",
		slog.Uint64("generation", snap.corpus.Generation()),
		slog.Int("documents", snap.corpus.Len()),
		slog.Int("terms", snap.index.Vocabulary().Len()),
		slog.Duration("elapsed", time.Since(start)))
	return snap, nil
}

// build runs load, index and catalog for one generation without publishing.
func (s *Service) build(ctx context.Context, sources []corpus.Source) (*snapshot, error) {
	s.lifecycle.SetStage(async.StageReading)
	c, err := s.docs.Load(ctx, sources)
	if err != nil {
		return nil, err
	}

	s.lifecycle.SetStage(async.StageIndexing)
	idx, err := store.Build(ctx, c, s.tokenizer, s.logger)
	if err != nil {
		return nil, err
	}

	s.lifecycle.SetStage(async.StageCataloging)
	cat, err := catalog.Build(ctx, c, s.logger)
	if err != nil {
		return nil, err
	}

	engine, err := search.NewEngine(c, idx, search.EngineConfig{MinScore: s.opts.MinScore})
	if err != nil {
		_ = cat.Close()
		return nil, amanerrors.InternalError("cannot assemble query engine", err)
	}

	return &snapshot{corpus: c, index: idx, catalog: cat, engine: engine}, nil
}

// Generation returns the published generation; ok is false before the
// first successful load.
func (s *Service) Generation() (uint64, bool) {
	snap := s.current.Load()
	if snap == nil {
		return 0, false
	}
	return snap.corpus.Generation(), true
}

// resultCount resolves a requested count: 0 takes the default and values
// above the maximum are capped.
func (s *Service) resultCount(n int) (int, error) {
	switch {
	case n < 0:
		return 0, amanerrors.ValidationError(fmt.Sprintf("result count must be positive, got %d", n), nil).
			WithDetail("n", fmt.Sprint(n))
	case n == 0:
		return s.opts.DefaultResults, nil
	case n > s.opts.MaxResults:
		return s.opts.MaxResults, nil
	}
	return n, nil
}

// Search returns up to n documents ranked by relevance to query. Equal
// (query, n) pairs against the same generation return identical results.
func (s *Service) Search(ctx context.Context, query string, n int) ([]search.Result, error) {
	start := time.Now()
	n, err := s.resultCount(n)
	if err != nil {
		return nil, err
	}
	snap, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	results, hit, err := s.cache.GetOrCompute(query, n, snap.engine.Generation(), func() ([]search.Result, error) {
		// Shared by every waiter on this key, so it must outlive any one of them.
		return snap.engine.Search(context.WithoutCancel(ctx), query, n)
	})
	if err != nil {
		s.logger.Debug("search_rejected", slog.String("query", query), slog.String("code", amanerrors.GetCode(err)))
		return nil, err
	}

	s.metrics.Record(telemetry.QueryEvent{
		Kind:        telemetry.KindSearch,
		Query:       query,
		Terms:       snap.index.Tokenize(query),
		ResultCount: len(results),
		CacheHit:    hit,
		Latency:     time.Since(start),
	})
	s.logger.Debug("search_completed",
		slog.String("query", query),
		slog.Int("n", n),
		slog.Int("results", len(results)),
		slog.Bool("cache_hit", hit),
		slog.Uint64("generation", snap.engine.Generation()),
		slog.Duration("elapsed", time.Since(start)))
	return results, nil
}

// TopicDetails returns the first document filed under topic. Topic labels
// are compared after lowercasing and whitespace collapsing.
func (s *Service) TopicDetails(ctx context.Context, topic string) (corpus.Document, error) {
	start := time.Now()
	snap, err := s.ready(ctx)
	if err != nil {
		return corpus.Document{}, err
	}

	doc, err := snap.catalog.TopicDetails(topic)
	found := 0
	if err == nil {
		found = 1
	}
	s.metrics.Record(telemetry.QueryEvent{
		Kind:        telemetry.KindTopic,
		Query:       topic,
		ResultCount: found,
		Latency:     time.Since(start),
	})
	if err != nil {
		s.logger.Debug("topic_not_found", slog.String("topic", topic))
		return corpus.Document{}, err
	}
	return doc, nil
}

// SuggestTopics returns up to n existing topics close to topic. It falls
// back to the topics of the best search hits when the catalog suggester has
// nothing. It never fails; an unservable knowledge base yields nil.
func (s *Service) SuggestTopics(ctx context.Context, topic string, n int) []string {
	if n <= 0 {
		return nil
	}
	snap, err := s.ready(ctx)
	if err != nil {
		return nil
	}
	if got := snap.catalog.Suggest(ctx, topic, n); len(got) > 0 {
		return got
	}

	query := labelQuery(topic)
	results, err := snap.engine.Search(ctx, query, n*2)
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{}, n)
	var out []string
	for _, r := range results {
		if _, ok := seen[r.Topic]; ok {
			continue
		}
		seen[r.Topic] = struct{}{}
		out = append(out, r.Topic)
		if len(out) == n {
			break
		}
	}
	return out
}

// ListTopics returns the distinct topics, sorted, optionally restricted to
// one category. An unknown category yields an empty list.
func (s *Service) ListTopics(ctx context.Context, category string) ([]string, error) {
	start := time.Now()
	snap, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	topics := snap.catalog.ListTopics(category)
	s.metrics.Record(telemetry.QueryEvent{
		Kind:        telemetry.KindList,
		Query:       category,
		ResultCount: len(topics),
		Latency:     time.Since(start),
	})
	return topics, nil
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	snap, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	return snap.catalog.Categories(), nil
}

// Document returns the document with the given ID.
func (s *Service) Document(ctx context.Context, id int) (corpus.Document, error) {
	snap, err := s.ready(ctx)
	if err != nil {
		return corpus.Document{}, err
	}
	return snap.corpus.Get(id)
}

// FilterByCategory returns the documents in category, in corpus order.
func (s *Service) FilterByCategory(ctx context.Context, category string) ([]corpus.Document, error) {
	snap, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	return snap.corpus.FilterByCategory(category), nil
}

// Append writes a new row to the last configured source and reloads.
// The first source is the ground truth and is never written, so at least
// two sources are required. If the reload fails the row is removed again,
// leaving the source as it was.
func (s *Service) Append(ctx context.Context, values map[string]string) (uint64, error) {
	sources := s.Sources()
	if len(sources) < 2 {
		return 0, amanerrors.ValidationError("no writable source: the only source is the ground truth", nil)
	}
	target := sources[len(sources)-1]
	appended, err := corpus.Append(target, values)
	if err != nil {
		return 0, err
	}
	s.logger.Info("document_appended", slog.String("source", target.Name), slog.Int("id", appended.ID))

	gen, err := s.Reload(ctx)
	if err != nil {
		if rbErr := appended.Rollback(); rbErr != nil {
			s.logger.Error("document_append_rollback_failed",
				slog.String("source", target.Name),
				slog.String("error", rbErr.Error()))
		} else {
			s.logger.Warn("document_append_rolled_back", slog.String("source", target.Name))
		}
		return 0, err
	}
	return gen, nil
}

// Close releases the published snapshot. Subsequent calls fail with
// IndexNotReadyError.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if snap := s.current.Swap(nil); snap != nil {
		return snap.catalog.Close()
	}
	return nil
}

var labelSeparators = strings.NewReplacer("_", " ", "-", " ")

// labelQuery turns a topic label into free text.
func labelQuery(topic string) string {
	return labelSeparators.Replace(topic)
}
