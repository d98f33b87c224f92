package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tansode/sitemd/internal/config"
	"github.com/tansode/sitemd/internal/engine"
	"github.com/tansode/sitemd/internal/log"
)

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <url>",
		Short: "List the pages a crawl of this URL would cover",
		Long: `Discover expands a seed URL into its candidate pages without fetching
any of them. Use it to preview what a crawl would cover and tune
--max-pages or ignore patterns before committing to a full crawl.

The sitemap.xml manifest is tried first; when the site has none, the
seed page is fetched and its same-origin links form the candidate set.

Examples:
  # Preview the crawl scope
  sitemd discover https://docs.example.com

  # Machine-readable output
  sitemd discover --json https://docs.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscoverCmd,
	}

	cmd.Flags().IntP("max-pages", "p", 0,
		"Maximum number of pages to discover (0 uses the default)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the candidate list as JSON")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitemd in current or home directory)")

	return cmd
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildDiscoverConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	e, err := engine.New(cfg, engine.WithLogger(logger))
	if err != nil {
		return err
	}

	pages, err := e.Discover(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(pages)
	}

	for _, p := range pages {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.URL, p.Title)
	}
	fmt.Fprintf(os.Stderr, "\n%d pages discovered\n", len(pages))
	return nil
}

// buildDiscoverConfig creates a Config for the discover command.
func buildDiscoverConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	maxPages, err := cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	if maxPages > 0 {
		cfg.MaxPages = maxPages
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	return cfg, nil
}
