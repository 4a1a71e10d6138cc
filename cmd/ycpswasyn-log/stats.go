package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ycpswasyn/ycpswasyn-go/cmd/ycpswasyn-log/commands"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats <file.ylog>",
		Short: "Show statistics about the log file",
		Long: `The stats command counts events by layer and category, records by
kind, and reports each driver session with its final state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], os.Stdout)
		},
	})
}
