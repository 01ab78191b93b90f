package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬┌┐ ┌─┐┬─┐┌─┐
  ├┤ │├┴┐├┤ ├┬┘└─┐
  └  ┴└─┘└─┘┴└─└─┘
`

func main() {
	errors.SetColor(os.Getenv("NO_COLOR") == "")
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fibers",
		Short: "An incremental fiber reconciler",
		Long: `fibers renders component trees into a host tree in
interruptible slices of work and dispatches synthetic events.

This tool mounts the bundled demos against an in-memory host:

  • run a demo and print the committed tree
  • serve a demo over HTTP with a live mutation stream
  • snapshot a demo to disk or S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".",
		"Config file, or directory containing fibers.json / fibers.yaml")

	rootCmd.AddCommand(
		runCmd(&configPath),
		serveCmd(&configPath),
		benchCmd(&configPath),
		snapshotCmd(&configPath),
		configCmd(&configPath),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
