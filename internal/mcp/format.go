package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aman-CERP/amankb/internal/corpus"
	"github.com/Aman-CERP/amankb/internal/kb"
	"github.com/Aman-CERP/amankb/internal/search"
)

const (
	// maxDetailBlocks is how many content paragraphs a search result shows.
	maxDetailBlocks = 3
	// maxDetailRunes caps each paragraph shown in a search result.
	maxDetailRunes = 300
)

var ruler = strings.Repeat("=", 60)

// FormatSearchResults renders ranked results for an agent. Each result
// shows its identity, question, answer and the first paragraphs of its
// content.
func FormatSearchResults(query string, results []search.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No relevant information found for: %s\nTry rephrasing your query or searching for related topics.", query)
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "\n--- Result %d (relevance: %.2f) ---\n", i+1, r.Score)
		writeIdentity(&sb, r.DocumentID, r.Topic, r.Category, r.Source, r.Question)
		if r.Answer != "" {
			fmt.Fprintf(&sb, "\nAnswer: %s\n", r.Answer)
		}

		blocks := paragraphs(r.Content, maxDetailBlocks)
		if len(blocks) > 0 {
			sb.WriteString("\nDetailed Procedures:")
			for _, b := range blocks {
				fmt.Fprintf(&sb, "\n  • %s", truncate(b, maxDetailRunes))
			}
		}
	}
	return sb.String()
}

// FormatTopicDetails renders the full record for a topic, including every
// metadata column of its source.
func FormatTopicDetails(doc corpus.Document) string {
	var sb strings.Builder
	writeIdentity(&sb, doc.ID, doc.Topic, doc.Category, doc.Source, doc.Question)
	sb.WriteString("\n" + ruler + "\n")
	if answer, ok := doc.Meta("answer"); ok && answer != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", answer)
		sb.WriteString("\n" + ruler + "\n")
	}

	var extra []corpus.MetadataEntry
	for _, m := range doc.Metadata {
		if !strings.EqualFold(m.Key, "answer") && strings.TrimSpace(m.Value) != "" {
			extra = append(extra, m)
		}
	}
	if len(extra) > 0 {
		sb.WriteString("Metadata:")
		for _, m := range extra {
			fmt.Fprintf(&sb, "\n  %s: %s", m.Key, m.Value)
		}
		sb.WriteString("\n\n" + ruler + "\n")
	}
	fmt.Fprintf(&sb, "Detailed Information:\n\n%s", doc.Content)
	return sb.String()
}

// writeIdentity writes the lines that locate a record. Category and source
// are omitted when blank.
func writeIdentity(sb *strings.Builder, id int, topic, category, source, question string) {
	fmt.Fprintf(sb, "ID: %d\n", id)
	fmt.Fprintf(sb, "Topic: %s\n", topic)
	if category != "" {
		fmt.Fprintf(sb, "Category: %s\n", category)
	}
	if source != "" {
		fmt.Fprintf(sb, "Source: %s\n", source)
	}
	fmt.Fprintf(sb, "Question: %s\n", question)
}

// FormatTopicNotFound renders a lookup miss, listing suggestions if any.
func FormatTopicNotFound(topic string, suggestions []string) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("Topic '%s' not found in knowledge base.", topic)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic '%s' not found.\n\nDid you mean one of these?", topic)
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "\n  - %s", s)
	}
	return sb.String()
}

// FormatTopicList renders the available topics, optionally for one category.
func FormatTopicList(category string, topics []string) string {
	suffix := ""
	if category != "" {
		suffix = " for category: " + category
	}
	if len(topics) == 0 {
		return fmt.Sprintf("No topics found%s.", suffix)
	}

	var sb strings.Builder
	if category != "" {
		fmt.Fprintf(&sb, "Available topics in category: %s:\n", category)
	} else {
		sb.WriteString("Available topics:\n")
	}
	for _, t := range topics {
		fmt.Fprintf(&sb, "\n  • %s", t)
	}
	fmt.Fprintf(&sb, "\n\nTotal: %d topics", len(topics))
	return sb.String()
}

// FormatReload reports a completed reload.
func FormatReload(generation uint64, st kb.Status) string {
	docs := 0
	for _, s := range st.Sources {
		docs += s.Documents
	}
	return fmt.Sprintf("Knowledge base reloaded (generation %d): %d documents from %d sources, %d topics.",
		generation, docs, len(st.Sources), st.Topics)
}

// FormatStatus renders the status report as indented JSON.
func FormatStatus(st kb.Status) (string, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// paragraphs returns up to max non-blank blank-line-separated blocks.
func paragraphs(content string, max int) []string {
	var out []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, block)
		if len(out) == max {
			break
		}
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
