package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amankb/internal/output"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every source loads and indexes",
		Long: `Load every configured source, build the index and report what each
source contributed. Fails with the first offending source and row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := openKnowledgeBase()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			out := output.New(cmd.OutOrStdout())
			if err := svc.Warm(cmd.Context()); err != nil {
				out.Error("Knowledge base failed to load")
				return err
			}

			st := svc.Status()
			out.Success("Knowledge base is valid")
			out.Newline()
			out.Section("Sources")
			for _, src := range st.Sources {
				out.KeyValue(src.Name, fmt.Sprintf("%d documents (ids from %d) %s", src.Documents, src.Offset, src.Path))
			}
			out.Newline()
			out.Section("Index")
			if st.Index != nil {
				out.KeyValue("documents", st.Index.Documents)
				out.KeyValue("terms", st.Index.Terms)
				out.KeyValue("postings", st.Index.Postings)
			}
			out.KeyValue("topics", st.Topics)
			out.KeyValue("categories", st.Categories)
			out.KeyValue("min score", cfg.Search.MinScore)
			return nil
		},
	}
}
