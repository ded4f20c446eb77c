// Package corpus loads support records from CSV sources into immutable,
// ID-stable corpus snapshots.
package corpus

import (
	"strconv"
	"strings"
	"time"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Source is one tabular input file.
type Source struct {
	// Name tags every document loaded from this source (e.g. "ground_truth").
	Name string `yaml:"name" toml:"name" json:"name"`
	// Path is the CSV file location.
	Path string `yaml:"path" toml:"path" json:"path"`
}

// MetadataEntry is one extra column value carried by a document.
type MetadataEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Document is one retrievable support record.
type Document struct {
	ID       int             `json:"id"`
	Source   string          `json:"source"`
	Topic    string          `json:"topic"`
	Category string          `json:"category,omitempty"`
	Question string          `json:"question"`
	Content  string          `json:"content"`
	Metadata []MetadataEntry `json:"metadata,omitempty"`
}

// Meta returns the metadata value for key, compared case-insensitively.
func (d Document) Meta(key string) (string, bool) {
	for _, m := range d.Metadata {
		if strings.EqualFold(m.Key, key) {
			return m.Value, true
		}
	}
	return "", false
}

// SourceStat summarizes what one source contributed to a corpus.
type SourceStat struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Documents int    `json:"documents"`
	// Offset is the amount added to every ID read from this source.
	Offset int `json:"offset"`
}

// Corpus is an immutable, ordered snapshot of documents.
// Nothing mutates a Corpus after Load returns it.
type Corpus struct {
	docs       []Document
	byID       map[int]int
	generation uint64
	loadedAt   time.Time
	sources    []SourceStat
}

// NewCorpus builds a corpus directly from documents, in order. IDs must be
// unique. Used by tests and by callers that assemble documents themselves.
func NewCorpus(docs []Document, generation uint64) (*Corpus, error) {
	c := &Corpus{
		docs:       make([]Document, len(docs)),
		byID:       make(map[int]int, len(docs)),
		generation: generation,
		loadedAt:   time.Now(),
	}
	for i, d := range docs {
		if _, dup := c.byID[d.ID]; dup {
			return nil, amanerrors.ValidationError("duplicate document id "+strconv.Itoa(d.ID), nil)
		}
		d.Topic = NormalizeLabel(d.Topic)
		d.Category = NormalizeLabel(d.Category)
		c.docs[i] = d
		c.byID[d.ID] = i
	}
	return c, nil
}

// Generation returns the snapshot version.
func (c *Corpus) Generation() uint64 { return c.generation }

// LoadedAt returns when the snapshot was built.
func (c *Corpus) LoadedAt() time.Time { return c.loadedAt }

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.docs) }

// At returns the document at corpus position i.
func (c *Corpus) At(i int) Document { return c.docs[i] }

// Documents returns a copy of the documents in corpus order.
func (c *Corpus) Documents() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Sources returns per-source load statistics.
func (c *Corpus) Sources() []SourceStat {
	out := make([]SourceStat, len(c.sources))
	copy(out, c.sources)
	return out
}

// Position returns the corpus position of the document with id.
func (c *Corpus) Position(id int) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// Get returns the document with the given ID.
func (c *Corpus) Get(id int) (Document, error) {
	i, ok := c.byID[id]
	if !ok {
		return Document{}, amanerrors.NotFoundError("document", strconv.Itoa(id))
	}
	return c.docs[i], nil
}

// FilterByCategory returns documents whose normalized category matches,
// preserving corpus order.
func (c *Corpus) FilterByCategory(category string) []Document {
	want := NormalizeLabel(category)
	var out []Document
	for _, d := range c.docs {
		if d.Category == want {
			out = append(out, d)
		}
	}
	return out
}

// NormalizeLabel trims, collapses internal whitespace and lowercases a
// topic or category label.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
