package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amankb/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show knowledge base status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := openKnowledgeBase()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			// A failed load is part of the report.
			_ = svc.Warm(cmd.Context())
			st := svc.Status()

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(st)
			}

			out.Section("Knowledge base")
			out.KeyValue("state", st.Lifecycle.State)
			out.KeyValue("generation", st.Lifecycle.Generation)
			out.KeyValue("documents", st.Lifecycle.Documents)
			out.KeyValue("topics", st.Topics)
			out.KeyValue("categories", st.Categories)
			if st.Lifecycle.LastError != "" {
				out.KeyValue("last error", st.Lifecycle.LastError)
			}
			out.Newline()
			out.Section("Sources")
			for _, src := range st.Sources {
				out.KeyValue(src.Name, fmt.Sprintf("%d documents  %s", src.Documents, src.Path))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
