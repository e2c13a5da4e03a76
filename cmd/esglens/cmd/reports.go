package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/esglens/internal/cli"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload reports to the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := opts.client().Upload(cmd.Context(), args)
			if err != nil {
				return err
			}
			return cli.WriteReports(cmd.OutOrStdout(), reports, opts.format())
		},
	}
}

func newSampleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Load the built-in sample report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := opts.client().LoadSample(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteReports(cmd.OutOrStdout(), reports, opts.format())
		},
	}
}

func newReportsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "reports",
		Aliases: []string{"ls"},
		Short:   "List uploaded reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := opts.client().ListReports(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteReports(cmd.OutOrStdout(), reports, opts.format())
		},
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var maxChars int
	cmd := &cobra.Command{
		Use:   "preview <report-id>",
		Short: "Show the beginning of a report's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.client().Preview(cmd.Context(), args[0], maxChars)
			if err != nil {
				return err
			}
			return cli.WritePreview(cmd.OutOrStdout(), p, opts.format())
		},
	}
	cmd.Flags().IntVar(&maxChars, "max-chars", 1000, "maximum characters to show")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health and index size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteHealth(cmd.OutOrStdout(), h, opts.format())
		},
	}
}
