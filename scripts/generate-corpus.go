//go:build ignore

// Command generate-corpus writes synthetic ground-truth and extension CSV
// sources for load testing.
// Usage: go run scripts/generate-corpus.go -rows 5000 -output testdata/bench
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numRows   = flag.Int("rows", 5000, "Number of ground-truth records")
	extRows   = flag.Int("extension-rows", 500, "Number of synthetic extension records")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	categories = []string{"cards", "payments", "disputes", "fraud", "accounts", "fees", "loans"}
	subjects   = []string{
		"card", "payment", "transfer", "balance", "charge", "statement", "limit",
		"refund", "deposit", "alert", "pin", "autopay", "wire", "check", "rate",
	}
	actions = []string{
		"activate", "cancel", "dispute", "report", "update", "increase", "reverse",
		"schedule", "verify", "close", "replace", "track",
	}
	steps = []string{
		"Sign in to the mobile app and open the account menu.",
		"Confirm the customer's identity with two security questions.",
		"Allow up to 10 business days for the change to post.",
		"Escalate to the back office team when the amount exceeds the daily limit.",
		"Send the confirmation number to the customer by secure message.",
		"Freeze the card immediately if fraud is suspected.",
		"Record the interaction in the case notes before closing.",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	truth := filepath.Join(*outputDir, "dataset.csv")
	if err := writeSource(truth, *numRows, false, rng); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", truth, err)
		os.Exit(1)
	}
	ext := filepath.Join(*outputDir, "synthetic_dataset.csv")
	if err := writeSource(ext, *extRows, true, rng); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", ext, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d + %d records in %s\n", *numRows, *extRows, *outputDir)
}

func writeSource(path string, rows int, extension bool, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{"topic", "category", "question", "content"}
	if extension {
		header = []string{"topic", "category", "question", "retrieved_chunks", "answer"}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		action := pick(rng, actions)
		subject := pick(rng, subjects)
		rec := []string{
			fmt.Sprintf("%s_%s", action, subject),
			pick(rng, categories),
			fmt.Sprintf("How do I %s a %s?", action, subject),
			content(rng, action, subject),
		}
		if extension {
			rec = append(rec, fmt.Sprintf("You can %s the %s from the app.", action, subject))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// content joins two to four procedure paragraphs with blank lines.
func content(rng *rand.Rand, action, subject string) string {
	n := 2 + rng.Intn(3)
	paras := make([]string, 0, n+1)
	paras = append(paras, fmt.Sprintf("To %s a %s, follow these steps.", action, subject))
	for i := 0; i < n; i++ {
		paras = append(paras, pick(rng, steps))
	}
	return strings.Join(paras, "\n\n")
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
