package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/esglens/internal/cli"
	"github.com/hyperjump/esglens/internal/models"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var topK int
	var reportIDs []string
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the passages most similar to a query",
		Long: `Query is all remaining arguments joined by spaces.

Examples:
  esglens search scope 1 emissions
  esglens search --report rep_1_1700000000 -k 5 "water withdrawals"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.SearchRequest{Query: strings.Join(args, " "), TopK: topK, ReportIDs: reportIDs}
			if err := req.Validate(); err != nil {
				return err
			}
			resp, err := opts.client().Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, opts.format())
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", models.DefaultTopK, "number of passages")
	cmd.Flags().StringSliceVar(&reportIDs, "report", nil, "restrict to report IDs (repeatable)")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var topK int
	var reportIDs []string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with citations from uploaded reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.QueryRequest{Question: strings.Join(args, " "), TopK: topK, ReportIDs: reportIDs}
			if err := req.Validate(); err != nil {
				return err
			}
			resp, err := opts.client().Ask(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), resp, opts.format())
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", models.DefaultTopK, "number of passages used as context")
	cmd.Flags().StringSliceVar(&reportIDs, "report", nil, "restrict to report IDs (repeatable)")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "analyze <" + strings.Join(cli.AnalysisKinds, "|") + "> <report-id>",
		Short:     "Run a report-level analysis",
		ValidArgs: cli.AnalysisKinds,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return err
			}
			for _, k := range cli.AnalysisKinds {
				if args[0] == k {
					return nil
				}
			}
			return fmt.Errorf("unknown analysis %q (want one of %s)", args[0], strings.Join(cli.AnalysisKinds, ", "))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := opts.client().Analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return cli.WriteAnalysis(cmd.OutOrStdout(), result, opts.format())
		},
	}
}
