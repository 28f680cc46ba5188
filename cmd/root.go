/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "landreg",
	Short: "Land registration and marketplace backend",
	Long: `landreg runs the land registration API server and its maintenance tasks.

	landreg server
	landreg migrate up
	landreg events tail --channel land.sale.approved
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it. The
// command context is cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
