// Package cmd is the process entry point of omero-render.
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ome/omero-render/internal/adapters/in/cli"
)

// ExecuteCLI runs the command line with the build information and returns
// the process exit code. SIGINT and SIGTERM cancel the running command.
func ExecuteCLI(build, commit, date string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdout, os.Stderr, build, commit, date)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, build, commit, date string) int {
	if build != "" {
		cli.SetVersionInfo(build, commit, date)
	}
	return cli.Execute(ctx, args, stdout, stderr)
}
