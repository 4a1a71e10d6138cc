package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ycpswasyn/ycpswasyn-go/cmd/ycpswasyn-log/commands"
)

var (
	viewLayer    string
	viewCategory string
	viewPath     string
)

func init() {
	cmd := &cobra.Command{
		Use:   "view <file.ylog>",
		Short: "View log file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter commands.ViewFilter
			if viewLayer != "" {
				l, err := commands.ParseLayerFlag(viewLayer)
				if err != nil {
					return err
				}
				filter.Layer = &l
			}
			if viewCategory != "" {
				c, err := commands.ParseCategoryFlag(viewCategory)
				if err != nil {
					return err
				}
				filter.Category = &c
			}
			filter.PathPrefix = viewPath
			return commands.RunView(args[0], filter, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&viewLayer, "layer", "", "Filter by layer (tree, record, stream, runtime)")
	cmd.Flags().StringVar(&viewCategory, "category", "", "Filter by category (record, diagnostic, state, error, data)")
	cmd.Flags().StringVar(&viewPath, "path", "", "Filter by register path prefix")
	rootCmd.AddCommand(cmd)
}
