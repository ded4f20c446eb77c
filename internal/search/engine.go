package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/store"
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Engine ranks the documents of one corpus generation. It is immutable
// and safe for concurrent use.
type Engine struct {
	corpus *corpus.Corpus
	index  *store.Index
	config EngineConfig
}

// NewEngine creates an engine over a corpus and the index built from it.
func NewEngine(c *corpus.Corpus, idx *store.Index, config EngineConfig) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: corpus is required", ErrNilDependency)
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: index is required", ErrNilDependency)
	}
	if c.Generation() != idx.Generation() || c.Len() != idx.Len() {
		return nil, amanerrors.InternalError(
			fmt.Sprintf("index generation %d does not match corpus generation %d", idx.Generation(), c.Generation()), nil)
	}
	if config.MinScore <= 0 {
		config.MinScore = DefaultMinScore
	}
	return &Engine{corpus: c, index: idx, config: config}, nil
}

// Generation returns the corpus generation the engine ranks.
func (e *Engine) Generation() uint64 { return e.corpus.Generation() }

// MinScore returns the relevance threshold in effect.
func (e *Engine) MinScore() float64 { return e.config.MinScore }

type candidate struct {
	pos   int
	id    int
	score float64
}

// Search returns at most n documents whose cosine similarity to query is
// at least the threshold, by score descending, then document ID ascending,
// then corpus position. A query with no tokens fails with an empty-query
// error; a query sharing no terms with the corpus returns an empty list.
func (e *Engine) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, amanerrors.ValidationError(fmt.Sprintf("result count must be at least 1, got %d", n), nil).
			WithDetail("num_results", fmt.Sprint(n))
	}

	qvec, tokens := e.index.Vectorize(query)
	if tokens == 0 {
		return nil, amanerrors.EmptyQueryError(query)
	}

	// Vectors are unit length, so the dot product is the cosine. Only
	// documents sharing a term with the query can score above zero.
	scores := make(map[int]float64)
	for _, w := range qvec {
		for _, p := range e.index.Postings(w.Term) {
			scores[p.Doc] += w.Value * p.Value
		}
	}

	cands := make([]candidate, 0, len(scores))
	for pos, s := range scores {
		if s > 1 {
			s = 1
		}
		if s < e.config.MinScore {
			continue
		}
		cands = append(cands, candidate{pos: pos, id: e.corpus.At(pos).ID, score: s})
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.id != b.id {
			return a.id < b.id
		}
		return a.pos < b.pos
	})
	if len(cands) > n {
		cands = cands[:n]
	}

	results := make([]Result, len(cands))
	for i, c := range cands {
		results[i] = toResult(e.corpus.At(c.pos), c.score)
	}
	return results, nil
}

func toResult(d corpus.Document, score float64) Result {
	answer, _ := d.Meta("answer")
	return Result{
		DocumentID: d.ID,
		Score:      score,
		Topic:      d.Topic,
		Category:   d.Category,
		Question:   d.Question,
		Content:    d.Content,
		Source:     d.Source,
		Answer:     answer,
	}
}
