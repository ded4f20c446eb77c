package store

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Aman-CERP/amankb/internal/corpus"
)

// cancelCheckInterval is how many documents are processed between context checks.
const cancelCheckInterval = 512

// Vocabulary maps terms to dense indices assigned in sorted term order.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Lookup returns the index of term.
func (v *Vocabulary) Lookup(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// Term returns the term at index i.
func (v *Vocabulary) Term(i int) string { return v.terms[i] }

// Index is an immutable TF-IDF index over one corpus generation.
// It is safe for concurrent reads.
type Index struct {
	tokenizer  *Tokenizer
	vocab      *Vocabulary
	idf        []float64
	vectors    []Vector
	postings   [][]Posting
	generation uint64
}

// DocumentText is the text indexed for a document: its content only.
// A query equal to a document's content therefore maps onto exactly that
// document's vector, so every document retrieves itself first unless
// another document has the same term distribution.
func DocumentText(d corpus.Document) string {
	return d.Content
}

// Build indexes every document of c. Each document vector holds
// tf * idf per term, idf = ln((1+N)/(1+df)) + 1, scaled to unit length.
// Build is single-threaded; ctx cancels it between documents.
func Build(ctx context.Context, c *corpus.Corpus, tok *Tokenizer, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	n := c.Len()

	// Pass 1: term counts per document and document frequency per term.
	counts := make([]map[string]int, n)
	df := make(map[string]int)
	for i := 0; i < n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tf := make(map[string]int)
		for _, term := range tok.Tokenize(DocumentText(c.At(i))) {
			tf[term]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	vocab := &Vocabulary{terms: terms, index: make(map[string]int, len(terms))}
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab.index[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	// Pass 2: weighted, normalized vectors and postings.
	vectors := make([]Vector, n)
	postings := make([][]Posting, len(terms))
	total := 0
	for i, tf := range counts {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		vec := make(Vector, 0, len(tf))
		for term, count := range tf {
			t := vocab.index[term]
			vec = append(vec, Weight{Term: t, Value: float64(count) * idf[t]})
		}
		vec = normalize(vec)
		for _, w := range vec {
			postings[w.Term] = append(postings[w.Term], Posting{Doc: i, Value: w.Value})
		}
		total += len(vec)
		vectors[i] = vec
	}

	idx := &Index{
		tokenizer:  tok,
		vocab:      vocab,
		idf:        idf,
		vectors:    vectors,
		postings:   postings,
		generation: c.Generation(),
	}
	logger.Debug("index_built",
		slog.Int("documents", n),
		slog.Int("terms", len(terms)),
		slog.Int("postings", total),
		slog.Uint64("generation", idx.generation),
		slog.Duration("duration", time.Since(start)))
	return idx, nil
}

// Generation returns the corpus generation this index was built from.
func (x *Index) Generation() uint64 { return x.generation }

// Vocabulary returns the term vocabulary.
func (x *Index) Vocabulary() *Vocabulary { return x.vocab }

// IDF returns the inverse document frequency of term index t.
func (x *Index) IDF(t int) float64 { return x.idf[t] }

// Vector returns the vector of the document at corpus position i.
func (x *Index) Vector(i int) Vector { return x.vectors[i] }

// Postings returns every (document position, weight) pair for term index t,
// in ascending document position.
func (x *Index) Postings(t int) []Posting { return x.postings[t] }

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.vectors) }

// Stats reports index dimensions.
func (x *Index) Stats() Stats {
	s := Stats{Generation: x.generation, Documents: len(x.vectors), Terms: x.vocab.Len()}
	for _, p := range x.postings {
		s.Postings += len(p)
	}
	return s
}

// Tokenize applies the index's tokenizer.
func (x *Index) Tokenize(text string) []string { return x.tokenizer.Tokenize(text) }

// Vectorize maps query into the vocabulary space. Terms outside the
// vocabulary are dropped. It also returns how many tokens the query had
// before vocabulary filtering, so callers can tell an empty query from one
// that merely shares no terms with the corpus.
func (x *Index) Vectorize(query string) (Vector, int) {
	tokens := x.tokenizer.Tokenize(query)
	tf := make(map[int]int, len(tokens))
	for _, term := range tokens {
		if t, ok := x.vocab.index[term]; ok {
			tf[t]++
		}
	}
	vec := make(Vector, 0, len(tf))
	for t, count := range tf {
		vec = append(vec, Weight{Term: t, Value: float64(count) * x.idf[t]})
	}
	return normalize(vec), len(tokens)
}
