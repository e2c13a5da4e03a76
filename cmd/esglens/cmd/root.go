// Package cmd provides the CLI commands for esglens.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/esglens/internal/cli"
	"github.com/hyperjump/esglens/internal/config"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/esglens/config.yaml"
	defaultServerURL  = "http://localhost:8000"
	clientTimeout     = 5 * time.Minute
)

type rootOptions struct {
	configPath string
	serverURL  string
	jsonOutput bool
	debug      bool
}

// NewRootCmd creates the root command for the esglens CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "esglens",
		Short: "Question answering over uploaded ESG reports",
		Long: `esglens indexes sustainability reports (PDF, DOCX, XLSX, PPTX, ODF, text)
into an in-memory vector index and answers questions over them with
page-level citations.

Run 'esglens serve' to start the API, then use the other commands as a client.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("esglens version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", defaultServerURL, "esglens server URL for client commands")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "write results as JSON")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newUploadCmd(opts))
	cmd.AddCommand(newSampleCmd(opts))
	cmd.AddCommand(newReportsCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) client() *cli.Client {
	return cli.NewClient(o.serverURL, clientTimeout)
}

func (o *rootOptions) format() cli.OutputFormat {
	if o.jsonOutput {
		return cli.OutputJSON
	}
	return cli.OutputText
}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory takes precedence; when neither exists the built-in defaults are used.
// Returns the config and the path it was loaded from ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cfg := config.Default()
			if err := config.ApplyEnv(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}
