// Package output provides consistent CLI output formatting with colors.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/search"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool

	heading *color.Color
	accent  *color.Color
	muted   *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
}

// New creates a Writer. Color is enabled only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return NewWithColor(out, isTerminal(out) && os.Getenv("NO_COLOR") == "")
}

// NewWithColor creates a Writer with color forced on or off.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	w := &Writer{
		out:      out,
		useColor: useColor,
		heading:  color.New(color.FgCyan, color.Bold),
		accent:   color.New(color.FgGreen, color.Bold),
		muted:    color.New(color.FgHiBlack),
		good:     color.New(color.FgGreen),
		warn:     color.New(color.FgYellow),
		bad:      color.New(color.FgRed),
	}
	for _, c := range []*color.Color{w.heading, w.accent, w.muted, w.good, w.warn, w.bad} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status(w.good.Sprint("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.warn.Sprint("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.bad.Sprint("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results prints ranked search results.
func (w *Writer) Results(query string, results []search.Result) {
	if len(results) == 0 {
		w.Warningf("No relevant information found for: %s", query)
		w.Status("", "Try rephrasing your query or searching for related topics.")
		return
	}
	for i, r := range results {
		_, _ = fmt.Fprintf(w.out, "%s %s %s\n",
			w.heading.Sprintf("%d.", i+1),
			w.accent.Sprint(r.Topic),
			w.muted.Sprintf("(relevance %.2f, id %d, %s)", r.Score, r.DocumentID, r.Source))
		_, _ = fmt.Fprintf(w.out, "   %s\n", r.Question)
		if r.Answer != "" {
			_, _ = fmt.Fprintf(w.out, "   %s %s\n", w.muted.Sprint("Answer:"), r.Answer)
		}
		_, _ = fmt.Fprintf(w.out, "   %s\n", Truncate(oneLine(r.Content), 200))
		if i < len(results)-1 {
			w.Newline()
		}
	}
}

// Document prints one document in full.
func (w *Writer) Document(d corpus.Document) {
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.heading.Sprint("Topic:"), w.accent.Sprint(d.Topic))
	if d.Category != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", w.heading.Sprint("Category:"), d.Category)
	}
	_, _ = fmt.Fprintf(w.out, "%s %s\n", w.heading.Sprint("Question:"), d.Question)
	if answer, ok := d.Meta("answer"); ok && answer != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", w.heading.Sprint("Answer:"), answer)
	}
	_, _ = fmt.Fprintf(w.out, "%s\n", w.muted.Sprintf("id %d from %s", d.ID, d.Source))
	w.Newline()
	_, _ = fmt.Fprintln(w.out, d.Content)
}

// List prints a titled bullet list with a total.
func (w *Writer) List(title string, items []string) {
	_, _ = fmt.Fprintln(w.out, w.heading.Sprint(title))
	for _, it := range items {
		_, _ = fmt.Fprintf(w.out, "  • %s\n", it)
	}
	_, _ = fmt.Fprintln(w.out, w.muted.Sprintf("Total: %d", len(items)))
}

// KeyValue prints an aligned "key: value" line.
func (w *Writer) KeyValue(key string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-14s %v\n", w.muted.Sprint(key+":"), value)
}

// Section prints a section heading.
func (w *Writer) Section(title string) {
	_, _ = fmt.Fprintln(w.out, w.heading.Sprint(title))
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
