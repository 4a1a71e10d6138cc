package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ycpswasyn/ycpswasyn-go/cmd/ycpswasyn-log/commands"
)

var filterOpts commands.FilterOptions

func init() {
	cmd := &cobra.Command{
		Use:   "filter <file.ylog>",
		Short: "Filter log file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := commands.RunFilter(args[0], filterOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Filtered %d events to %s\n", n, filterOpts.Output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filterOpts.Output, "output", "o", "", "Output file (required)")
	f.StringVar(&filterOpts.SessionID, "session", "", "Filter by session ID")
	f.StringVar(&filterOpts.Port, "port", "", "Filter by port name")
	f.StringVar(&filterOpts.PathPrefix, "path", "", "Filter by register path prefix")
	f.StringVar(&filterOpts.RecordName, "record", "", "Filter record events by name substring")
	f.StringVar(&filterOpts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	f.StringVar(&filterOpts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	f.StringVar(&filterOpts.Layer, "layer", "", "Filter by layer (tree, record, stream, runtime)")
	f.StringVar(&filterOpts.Category, "category", "", "Filter by category (record, diagnostic, state, error, data)")
	_ = cmd.MarkFlagRequired("output")
	rootCmd.AddCommand(cmd)
}
