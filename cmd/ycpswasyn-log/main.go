// Command ycpswasyn-log views and analyzes driver event logs.
//
// Event logs are written by ycpswasyn when started with -event-log.
//
// Usage:
//
//	ycpswasyn-log <command> [flags] <file.ylog>
//
// Examples:
//
//	# View all events
//	ycpswasyn-log view atca.ylog
//
//	# View only events below one hub
//	ycpswasyn-log view --path /mmio/AmcCarrierCore atca.ylog
//
//	# Export to CSV
//	ycpswasyn-log export --format csv -o atca.csv atca.ylog
//
//	# Keep only errors of one session
//	ycpswasyn-log filter --category error --session 1b2c -o errors.ylog atca.ylog
//
//	# Show statistics
//	ycpswasyn-log stats atca.ylog
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "ycpswasyn-log",
	Short: "View and analyze driver event logs",
	Long: `ycpswasyn-log reads the CBOR event log written by the driver and
prints, filters, exports or summarizes its events.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
