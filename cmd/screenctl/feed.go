package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vibetunnel/screenengine/internal/vtfeed"
	"github.com/vibetunnel/screenengine/pkg/pagelist"
)

// newFeedCmd spawns the given command behind a local PTY, mirrors its
// output to the terminal exactly like a normal shell would, and drives
// an in-process PageList from the same bytes -- a live demo of
// resize-driven reflow, since SIGWINCH drives both the real PTY and the
// engine's Resize call.
func newFeedCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed -- <command> [args...]",
		Short: "Run a command behind a PTY and mirror its output through the engine",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(args)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runFeed(args []string) error {
	cols, rows, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		cols, rows = 80, 24
	}

	pl, err := pagelist.New(cols, rows, 0)
	if err != nil {
		return fmt.Errorf("feed: create page list: %w", err)
	}
	interp := vtfeed.New(pl)

	c := exec.Command(args[0], args[1:]...)
	ptmx, err := pty.Start(c)
	if err != nil {
		return fmt.Errorf("feed: start pty: %w", err)
	}
	defer ptmx.Close()

	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, syscall.SIGWINCH)
	go func() {
		for range sigwinch {
			if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
				_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(w), Rows: uint16(h)})
				_ = interp.Resize(w, h, true)
			}
		}
	}()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer term.Restore(int(os.Stdin.Fd()), oldState)
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()

	buf := make([]byte, 32*1024)
	for {
		n, readErr := ptmx.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			os.Stdout.Write(chunk)
			_, _ = interp.Write(chunk)
		}
		if readErr != nil {
			break
		}
	}

	return pl.Dump(os.Stderr)
}
