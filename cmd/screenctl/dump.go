package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibetunnel/screenengine/internal/vtfeed"
	"github.com/vibetunnel/screenengine/pkg/pagelist"
)

// newDumpCmd feeds a VT byte stream (from a file or stdin) through the
// engine non-interactively and prints its final page layout -- useful
// for inspecting a captured asciinema "o" stream without a live PTY.
func newDumpCmd() *cobra.Command {
	var cols, rows int
	var inputPath string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Feed a byte stream through the engine and print its page layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if inputPath != "" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("dump: open %s: %w", inputPath, err)
				}
				defer f.Close()
				r = f
			}

			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("dump: read input: %w", err)
			}

			pl, err := pagelist.New(cols, rows, 0)
			if err != nil {
				return fmt.Errorf("dump: create page list: %w", err)
			}
			interp := vtfeed.New(pl)
			if _, err := interp.Write(data); err != nil {
				return fmt.Errorf("dump: feed input: %w", err)
			}

			return pl.Dump(os.Stdout)
		},
	}

	cmd.Flags().IntVar(&cols, "cols", 80, "page list column count")
	cmd.Flags().IntVar(&rows, "rows", 24, "page list active row count")
	cmd.Flags().StringVar(&inputPath, "input", "", "file to read instead of stdin")
	return cmd
}
