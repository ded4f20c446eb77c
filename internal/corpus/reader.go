package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Canonical column names.
const (
	ColumnID       = "id"
	ColumnTopic    = "topic"
	ColumnCategory = "category"
	ColumnQuestion = "question"
	ColumnContent  = "content"
)

// columnAliases maps alternative header names to canonical columns.
// retrieved_chunks is the content column of generated datasets.
var columnAliases = map[string]string{
	"retrieved_chunks": ColumnContent,
}

// cancelCheckInterval is how many rows are read between context checks.
const cancelCheckInterval = 256

// layout records where each known column sits in a source's header.
type layout struct {
	header   []string
	topic    int
	category int
	question int
	content  int
	id       int
	extras   []int
}

func parseHeader(src Source, header []string) (*layout, error) {
	l := &layout{header: header, topic: -1, category: -1, question: -1, content: -1, id: -1}
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		slot := l.slot(name)
		if slot == nil {
			l.extras = append(l.extras, i)
			continue
		}
		if *slot >= 0 {
			return nil, amanerrors.DataLoadError(src.Name, 0, fmt.Sprintf("duplicate column %q", name), nil)
		}
		*slot = i
	}

	for _, req := range []struct {
		name string
		idx  int
	}{{ColumnTopic, l.topic}, {ColumnQuestion, l.question}, {ColumnContent, l.content}} {
		if req.idx < 0 {
			return nil, amanerrors.DataLoadError(src.Name, 0, fmt.Sprintf("missing required column %q", req.name), nil).
				WithDetail("path", src.Path)
		}
	}
	return l, nil
}

func (l *layout) slot(name string) *int {
	switch name {
	case ColumnTopic:
		return &l.topic
	case ColumnCategory:
		return &l.category
	case ColumnQuestion:
		return &l.question
	case ColumnContent:
		return &l.content
	case ColumnID:
		return &l.id
	}
	return nil
}

// readSource parses one CSV source. IDs are the explicit id column when
// present, else the 0-based data row index; offset is added to either.
func readSource(ctx context.Context, src Source, offset int) ([]Document, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		code := amanerrors.ErrCodeDataLoad
		if errors.Is(err, fs.ErrNotExist) {
			code = amanerrors.ErrCodeSourceNotFound
		}
		return nil, amanerrors.New(code, fmt.Sprintf("source %q: cannot open %s", src.Name, src.Path), err).
			WithDetail("source", src.Name).
			WithDetail("path", src.Path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, amanerrors.DataLoadError(src.Name, 0, "missing header row", nil)
		}
		return nil, amanerrors.DataLoadError(src.Name, 0, "unreadable header", err)
	}
	l, err := parseHeader(src, header)
	if err != nil {
		return nil, err
	}

	var docs []Document
	seen := make(map[int]struct{})
	for row := 1; ; row++ {
		if row%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, amanerrors.DataLoadError(src.Name, row, "malformed record", err)
		}
		doc, err := l.document(src, row, rec)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, amanerrors.DataLoadError(src.Name, row, fmt.Sprintf("duplicate id %d", doc.ID), nil)
		}
		seen[doc.ID] = struct{}{}
		doc.ID += offset
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *layout) document(src Source, row int, rec []string) (Document, error) {
	field := func(name string, idx int) (string, error) {
		v := strings.TrimSpace(rec[idx])
		if v == "" {
			return "", amanerrors.DataLoadError(src.Name, row, fmt.Sprintf("empty %s", name), nil)
		}
		return v, nil
	}

	topic, err := field(ColumnTopic, l.topic)
	if err != nil {
		return Document{}, err
	}
	question, err := field(ColumnQuestion, l.question)
	if err != nil {
		return Document{}, err
	}
	content, err := field(ColumnContent, l.content)
	if err != nil {
		return Document{}, err
	}

	id := row - 1
	if l.id >= 0 {
		raw := strings.TrimSpace(rec[l.id])
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Document{}, amanerrors.DataLoadError(src.Name, row, fmt.Sprintf("invalid id %q", raw), err)
		}
		id = n
	}

	doc := Document{
		ID:       id,
		Source:   src.Name,
		Topic:    NormalizeLabel(topic),
		Question: question,
		Content:  content,
	}
	if l.category >= 0 {
		doc.Category = NormalizeLabel(rec[l.category])
	}
	for _, i := range l.extras {
		doc.Metadata = append(doc.Metadata, MetadataEntry{
			Key:   strings.TrimSpace(l.header[i]),
			Value: rec[i],
		})
	}
	return doc, nil
}
