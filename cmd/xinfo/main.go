// Command xinfo prints what an X server offers: its fonts, its extensions and
// the monitors RandR reports.
package main

import (
	"fmt"
	"os"

	"github.com/justshow/x11"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// open is replaced in tests.
var open = func(display string) (*x11.Conn, error) {
	return x11.OpenDisplay(display)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xinfo: error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "xinfo",
		Short: "Query an X server",
		Long: `xinfo connects to an X server and lists what it offers.

The server is taken from --display, or from $DISPLAY when unset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				x11.Logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().String("display", "", "X display to connect to")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log protocol traffic to stderr")

	cmd.AddCommand(lsCmd())
	return cmd
}
