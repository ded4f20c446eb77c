package errors

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForUser renders err for a person reading a terminal. Data errors
// always name the offending source and row; debug adds the remaining
// details and the underlying cause.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}
	ae, ok := As(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ae.Message)
	if loc := location(ae); loc != "" && !debug {
		fmt.Fprintf(&sb, "  at %s\n", loc)
	}
	if ae.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", ae.Suggestion)
	}
	if debug {
		for _, k := range detailKeys(ae) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, ae.Details[k])
		}
		if ae.Cause != nil {
			fmt.Fprintf(&sb, "  cause: %v\n", ae.Cause)
		}
	}
	fmt.Fprintf(&sb, "\n[%s]", ae.Code)
	return sb.String()
}

// FormatForCLI renders err in at most four short lines.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	ae, ok := As(err)
	if !ok {
		ae = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ae.Message)
	if loc := location(ae); loc != "" {
		fmt.Fprintf(&sb, "  At: %s\n", loc)
	}
	if ae.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ae.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ae.Code)
	return sb.String()
}

// LogAttrs flattens err into slog attributes: the code, the message, the
// cause and one detail_<key> attribute per detail, in key order.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}
	ae, ok := As(err)
	if !ok {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("code", ae.Code),
		slog.String("category", string(ae.Category)),
		slog.String("error", ae.Message),
	}
	if ae.Cause != nil {
		attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
	}
	for _, k := range detailKeys(ae) {
		attrs = append(attrs, slog.String("detail_"+k, ae.Details[k]))
	}
	return attrs
}

// location is "source[:row]" for errors that carry a source detail.
func location(ae *AmanError) string {
	src := ae.Details["source"]
	if src == "" {
		return ""
	}
	if row := ae.Details["row"]; row != "" {
		return src + ":" + row
	}
	return src
}

func detailKeys(ae *AmanError) []string {
	keys := make([]string, 0, len(ae.Details))
	for k := range ae.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
