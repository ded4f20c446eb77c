// Package catalog provides exact topic and category lookups over a corpus
// snapshot, plus fuzzy "did you mean" suggestions for missed topics.
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/Aman-CERP/amankb/internal/corpus"
	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Catalog indexes topics and categories of one corpus generation.
// Lookups are read-only and safe for concurrent use.
type Catalog struct {
	corpus     *corpus.Corpus
	byTopic    map[string]int
	byCategory map[string][]string
	topics     []string
	categories []string

	logger    *slog.Logger
	closeOnce sync.Once
	suggester bleve.Index
}

// suggestDoc is the bleve document for one topic.
type suggestDoc struct {
	Label     string `json:"label"`
	Questions string `json:"questions"`
}

// Build creates the catalog for c. When several documents share a topic,
// the first in corpus order answers TopicDetails. A suggester build
// failure is logged and only disables Suggest.
func Build(ctx context.Context, c *corpus.Corpus, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cat := &Catalog{
		corpus:     c,
		byTopic:    make(map[string]int),
		byCategory: make(map[string][]string),
		logger:     logger,
	}

	questions := make(map[string][]string)
	catTopics := make(map[string]map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		d := c.At(i)
		if _, ok := cat.byTopic[d.Topic]; !ok {
			cat.byTopic[d.Topic] = i
			cat.topics = append(cat.topics, d.Topic)
		}
		questions[d.Topic] = append(questions[d.Topic], d.Question)
		if d.Category == "" {
			continue
		}
		set, ok := catTopics[d.Category]
		if !ok {
			set = make(map[string]struct{})
			catTopics[d.Category] = set
			cat.categories = append(cat.categories, d.Category)
		}
		set[d.Topic] = struct{}{}
	}
	sort.Strings(cat.topics)
	sort.Strings(cat.categories)
	for category, set := range catTopics {
		list := make([]string, 0, len(set))
		for t := range set {
			list = append(list, t)
		}
		sort.Strings(list)
		cat.byCategory[category] = list
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx, err := buildSuggester(cat.topics, questions)
	if err != nil {
		logger.Warn("topic_suggester_unavailable", slog.String("error", err.Error()))
	} else {
		cat.suggester = idx
	}
	return cat, nil
}

func buildSuggester(topics []string, questions map[string][]string) (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	batch := idx.NewBatch()
	for _, t := range topics {
		doc := suggestDoc{Label: labelText(t), Questions: strings.Join(questions[t], "\n")}
		if err := batch.Index(t, doc); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

// labelText splits snake_case labels into words for analysis.
func labelText(topic string) string {
	return strings.ReplaceAll(topic, "_", " ")
}

// Generation returns the corpus generation the catalog was built from.
func (c *Catalog) Generation() uint64 { return c.corpus.Generation() }

// TopicDetails returns the document for an exact normalized topic match.
func (c *Catalog) TopicDetails(topic string) (corpus.Document, error) {
	key := corpus.NormalizeLabel(topic)
	i, ok := c.byTopic[key]
	if !ok {
		return corpus.Document{}, amanerrors.NotFoundError("topic", key)
	}
	return c.corpus.At(i), nil
}

// ListTopics returns sorted distinct topics. An empty category lists every
// topic; otherwise only topics of documents in that normalized category.
// An unknown category yields an empty list.
func (c *Catalog) ListTopics(category string) []string {
	key := corpus.NormalizeLabel(category)
	var src []string
	if key == "" {
		src = c.topics
	} else {
		src = c.byCategory[key]
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Categories returns the sorted distinct non-empty categories.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Len returns the number of distinct topics.
func (c *Catalog) Len() int { return len(c.topics) }

// Suggest returns up to n existing topics resembling topic, best first.
// It matches fuzzily against topic labels and exactly against the
// questions filed under each topic. It never fails: any problem yields nil.
func (c *Catalog) Suggest(ctx context.Context, topic string, n int) []string {
	text := strings.TrimSpace(labelText(corpus.NormalizeLabel(topic)))
	if c.suggester == nil || text == "" || n <= 0 {
		return nil
	}

	label := bleve.NewMatchQuery(text)
	label.SetField("label")
	label.SetFuzziness(1)
	questions := bleve.NewMatchQuery(text)
	questions.SetField("questions")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(label, questions), n, 0, false)
	res, err := c.suggester.SearchInContext(ctx, req)
	if err != nil {
		c.logger.Debug("topic_suggest_failed", slog.String("topic", topic), slog.String("error", err.Error()))
		return nil
	}
	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, hit.ID)
	}
	return out
}

// Close releases the suggester index. Lookups keep working afterwards.
func (c *Catalog) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.suggester != nil {
			err = c.suggester.Close()
		}
	})
	return err
}
