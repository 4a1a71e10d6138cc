package main

import (
	"github.com/spf13/cobra"

	"github.com/ycpswasyn/ycpswasyn-go/cmd/ycpswasyn-log/commands"
)

var (
	exportFormat string
	exportOutput string
)

func init() {
	cmd := &cobra.Command{
		Use:   "export <file.ylog>",
		Short: "Export log file to JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunExport(args[0], exportFormat, exportOutput)
		},
	}
	cmd.Flags().StringVar(&exportFormat, "format", "jsonl", "Output format (jsonl, csv)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(cmd)
}
