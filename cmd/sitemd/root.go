// Package main provides the entry point for the sitemd CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitemd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemd",
		Short: "Crawl a website into one consolidated markdown document",
		Long: `sitemd crawls a website starting from a seed URL, extracts the main
content of every discovered page, and consolidates everything into a
single markdown document.

Discovery prefers the site's sitemap.xml and falls back to the links on
the seed page. Pages are fetched concurrently with a bounded worker pool.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// commandContext returns the command's context. Cobra only attaches a
// context during Execute, so direct invocations fall back to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
