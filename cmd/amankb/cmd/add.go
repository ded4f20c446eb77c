package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/output"
)

func newAddCmd() *cobra.Command {
	var (
		topic    string
		category string
		question string
		content  string
		answer   string
		extra    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a record to the last source and reload",
		Long: `Append one record to the last configured source (never the ground
truth) and rebuild the index. Existing document IDs do not change.`,
		Example: `  amankb add --topic overdraft_fee --category fees \
    --question "Why was I charged an overdraft fee?" \
    --content "Overdraft fees apply when the balance drops below zero" \
    --answer "Fees apply below zero"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := map[string]string{
				"topic":    topic,
				"category": category,
				"question": question,
				"content":  content,
			}
			if answer != "" {
				values["answer"] = answer
			}
			for k, v := range extra {
				values[strings.ToLower(strings.TrimSpace(k))] = v
			}
			for _, required := range []string{"topic", "question", "content"} {
				if strings.TrimSpace(values[required]) == "" {
					return amanerrors.ValidationError("--"+required+" is required", nil)
				}
			}

			svc, _, err := openKnowledgeBase()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			gen, err := svc.Append(cmd.Context(), values)
			if err != nil {
				return err
			}

			sources := svc.Sources()
			out := output.New(cmd.OutOrStdout())
			out.Successf("Added %q to %s (generation %d)", topic, sources[len(sources)-1].Name, gen)
			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic label")
	cmd.Flags().StringVar(&category, "category", "", "Category")
	cmd.Flags().StringVar(&question, "question", "", "Question text")
	cmd.Flags().StringVar(&content, "content", "", "Detailed content")
	cmd.Flags().StringVar(&answer, "answer", "", "Short answer")
	cmd.Flags().StringToStringVar(&extra, "set", nil, "Extra column values (key=value, repeatable)")
	return cmd
}
