// Command screenctl is the demo/debug CLI for the screen storage
// engine: it can run the HTTP/websocket server, feed a local PTY
// through the engine interactively, or dump a page list's internal
// layout for a given input.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "screenctl",
		Short: "Debug CLI for the paged terminal screen storage engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newFeedCmd(&configPath))
	root.AddCommand(newDumpCmd())
	return root
}
