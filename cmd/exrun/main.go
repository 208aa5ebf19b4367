// Command exrun runs one executable and prints its standard output, or a
// uniform error when the process fails.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sa6mwa/exrun/internal/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := context.Background()
	root := cli.New(buildVersion(), os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("command failed", "err", err)
		os.Exit(cli.ExitCode(err))
	}
}

func buildVersion() string {
	v := version
	if commit != "" {
		v += " (" + commit + ")"
	}
	if date != "" {
		v += " " + date
	}
	return v
}
