package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
	"github.com/Aman-CERP/amankb/internal/output"
)

func newTopicCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "topic <label>",
		Short: "Show the full record for a topic",
		Long: `Show the first record filed under a topic label. Labels match
case-insensitively; unknown labels list the closest existing topics.`,
		Example: `  amankb topic card_activation
  amankb topic "Lost_Card" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openKnowledgeBase()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			out := output.New(cmd.OutOrStdout())
			doc, err := svc.TopicDetails(cmd.Context(), args[0])
			if amanerrors.IsNotFound(err) {
				if suggestions := svc.SuggestTopics(cmd.Context(), args[0], 3); len(suggestions) > 0 {
					out.List("Did you mean one of these?", suggestions)
				}
				return err
			}
			if err != nil {
				return err
			}

			if jsonOutput {
				return out.JSON(doc)
			}
			out.Document(doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTopicsCmd() *cobra.Command {
	var (
		category   string
		categories bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List available topics",
		Example: `  amankb topics
  amankb topics --category cards
  amankb topics --categories`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := openKnowledgeBase()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			out := output.New(cmd.OutOrStdout())
			if categories {
				cats, err := svc.Categories(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return out.JSON(cats)
				}
				out.List("Categories:", cats)
				return nil
			}

			topics, err := svc.ListTopics(cmd.Context(), category)
			if err != nil {
				return err
			}
			if jsonOutput {
				return out.JSON(topics)
			}
			if len(topics) == 0 {
				suffix := ""
				if category != "" {
					suffix = " for category: " + category
				}
				out.Warningf("No topics found%s.", suffix)
				return nil
			}
			title := "Available topics:"
			if strings.TrimSpace(category) != "" {
				title = fmt.Sprintf("Available topics in category %s:", category)
			}
			out.List(title, topics)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only topics in this category")
	cmd.Flags().BoolVar(&categories, "categories", false, "List categories instead of topics")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
