package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for trackerscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trackerscan",
		Short: "Detect analytics and tracking tools on web pages",
		Long: `trackerscan loads web pages in a headless browser, lets them settle
(scrolling and dismissing consent banners), and reports which analytics,
advertising and tag management tools they run.

Each tool is detected from four independent signals: network requests,
injected DOM elements, global JavaScript variables and script source text.
The signals are combined into a score and a confidence level.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewSignaturesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so running scans stop and release their browsers.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
