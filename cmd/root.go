package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "equity-lab",
	Short: "Watchlist backtesting and trade review toolkit",
}

func Execute() error {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(migrateCmd)
	return rootCmd.Execute()
}
