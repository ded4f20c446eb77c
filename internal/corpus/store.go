package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Store loads corpus snapshots and tracks the published generation.
type Store struct {
	mu      sync.RWMutex
	current *Corpus
	logger  *slog.Logger
}

// NewStore creates a store with no published corpus.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Current returns the published corpus, or nil before the first publish.
func (s *Store) Current() *Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads every source in order and returns a fresh corpus. The first
// source keeps its IDs; each later source is offset past the largest ID
// of all earlier ones. The returned generation is 0 when nothing has been
// published yet and the published generation plus one otherwise. Load does
// not publish.
func (s *Store) Load(ctx context.Context, sources []Source) (*Corpus, error) {
	if len(sources) == 0 {
		return nil, amanerrors.DataLoadError("", -1, "no sources configured", nil)
	}

	start := time.Now()
	var (
		docs  []Document
		stats = make([]SourceStat, 0, len(sources))
		next  = 0
	)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := s.readLocked(ctx, src, next)
		if err != nil {
			return nil, err
		}
		stats = append(stats, SourceStat{Name: src.Name, Path: src.Path, Documents: len(loaded), Offset: next})
		for _, d := range loaded {
			if d.ID+1 > next {
				next = d.ID + 1
			}
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		return nil, amanerrors.DataLoadError(sources[0].Name, -1, "no documents in any source", nil)
	}

	var gen uint64
	if cur := s.Current(); cur != nil {
		gen = cur.generation + 1
	}

	c := &Corpus{
		docs:       docs,
		byID:       make(map[int]int, len(docs)),
		generation: gen,
		loadedAt:   time.Now(),
		sources:    stats,
	}
	for i, d := range docs {
		c.byID[d.ID] = i
	}

	s.logger.Debug("corpus_loaded",
		slog.Int("documents", len(docs)),
		slog.Int("sources", len(sources)),
		slog.Uint64("generation", gen),
		slog.Duration("duration", time.Since(start)))
	return c, nil
}

// Publish records c as the current corpus. Callers publish only after
// every structure derived from c has been built.
func (s *Store) Publish(c *Corpus) {
	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
}

func (s *Store) readLocked(ctx context.Context, src Source, offset int) ([]Document, error) {
	lock := NewSourceLock(src.Path)
	if _, err := os.Stat(src.Path); err == nil {
		if _, err := lock.RLock(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, amanerrors.New(amanerrors.ErrCodeSourceLocked,
				fmt.Sprintf("source %q: cannot lock %s", src.Name, src.Path), err).
				WithDetail("source", src.Name)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				s.logger.Warn("source_unlock_failed", slog.String("source", src.Name), slog.String("error", err.Error()))
			}
		}()
	}
	return readSource(ctx, src, offset)
}

// Appended records a row written by Append.
type Appended struct {
	Source Source

	// ID is the source-local id of the new row: the id column value when
	// the source has one, else its 0-based data row index.
	ID int

	before int64
	after  int64
}

// Append adds one row to the source file under an exclusive lock. Values
// are keyed by header column name; columns without a value are left empty.
// The row is validated the way Load would read it before anything is
// written. A blank id column is filled with the source's largest id plus
// one. Append never creates a file: the header must already exist.
func Append(src Source, values map[string]string) (Appended, error) {
	lock := NewSourceLock(src.Path)
	if err := lock.Lock(); err != nil {
		return Appended{}, amanerrors.New(amanerrors.ErrCodeSourceLocked, "cannot lock "+src.Path, err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(src.Path, os.O_RDWR, 0)
	if err != nil {
		return Appended{}, amanerrors.New(amanerrors.ErrCodeSourceNotFound, "cannot open "+src.Path, err).
			WithDetail("source", src.Name)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return Appended{}, amanerrors.DataLoadError(src.Name, 0, "unreadable header", err)
	}
	l, err := parseHeader(src, header)
	if err != nil {
		return Appended{}, err
	}

	rows, maxID := 0, -1
	ids := make(map[int]struct{})
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Appended{}, amanerrors.DataLoadError(src.Name, rows+1, "malformed record", err)
		}
		rows++
		if l.id < 0 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(rec[l.id])); err == nil {
			ids[n] = struct{}{}
			if n > maxID {
				maxID = n
			}
		}
	}

	row := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if v, ok := values[name]; ok {
			row[i] = v
			continue
		}
		if canonical, ok := columnAliases[name]; ok {
			row[i] = values[canonical]
		}
	}
	if l.id >= 0 && strings.TrimSpace(row[l.id]) == "" {
		row[l.id] = strconv.Itoa(maxID + 1)
	}

	doc, err := l.document(src, rows+1, row)
	if err != nil {
		msg := err.Error()
		if ae, ok := amanerrors.As(err); ok {
			msg = ae.Message
		}
		return Appended{}, amanerrors.ValidationError("rejected row: "+msg, nil).
			WithDetail("source", src.Name).
			WithDetail("row", strconv.Itoa(rows+1))
	}
	if _, dup := ids[doc.ID]; dup {
		return Appended{}, amanerrors.ValidationError(fmt.Sprintf("rejected row: duplicate id %d", doc.ID), nil).
			WithDetail("source", src.Name)
	}

	info, err := f.Stat()
	if err != nil {
		return Appended{}, amanerrors.InternalError("cannot append to "+src.Path, err)
	}
	if err := ensureTrailingNewline(f); err != nil {
		return Appended{}, amanerrors.InternalError("cannot append to "+src.Path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return Appended{}, amanerrors.InternalError("cannot append to "+src.Path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Appended{}, amanerrors.InternalError("cannot append to "+src.Path, err)
	}
	end, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return Appended{}, amanerrors.InternalError("cannot append to "+src.Path, err)
	}
	return Appended{Source: src, ID: doc.ID, before: info.Size(), after: end}, nil
}

// Rollback truncates the source back to its size before the append. It
// refuses when the file has changed size since, so rows written by another
// process are never cut.
func (a Appended) Rollback() error {
	lock := NewSourceLock(a.Source.Path)
	if err := lock.Lock(); err != nil {
		return amanerrors.New(amanerrors.ErrCodeSourceLocked, "cannot lock "+a.Source.Path, err)
	}
	defer func() { _ = lock.Unlock() }()

	info, err := os.Stat(a.Source.Path)
	if err != nil {
		return amanerrors.New(amanerrors.ErrCodeSourceNotFound, "cannot stat "+a.Source.Path, err)
	}
	if info.Size() != a.after {
		return amanerrors.InternalError(
			fmt.Sprintf("cannot roll back %s: size changed from %d to %d", a.Source.Path, a.after, info.Size()), nil)
	}
	if err := os.Truncate(a.Source.Path, a.before); err != nil {
		return amanerrors.InternalError("cannot roll back "+a.Source.Path, err)
	}
	return nil
}

// ensureTrailingNewline positions f at its end, writing a newline first if
// the last byte is not one.
func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if last[0] != '\n' {
		_, err = f.Write([]byte("\n"))
	}
	return err
}
