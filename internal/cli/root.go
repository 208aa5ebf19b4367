package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/sa6mwa/exrun"
	"github.com/sa6mwa/exrun/internal/config"
	"github.com/sa6mwa/exrun/internal/logger"
)

type options struct {
	configPath string
	logLevel   string
}

// New creates the root CLI command. Log records go to logOut.
func New(version string, logOut io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "exrun",
		Short:         "Run an executable and report its output or a uniform error",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML configuration")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newExecCmd(opts, logOut))
	root.AddCommand(newScriptCmd(opts, logOut))
	return root
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version)
		},
	}
}

func newExecCmd(opts *options, logOut io.Writer) *cobra.Command {
	var split bool
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "exec [flags] <executable> [args...]",
		Short: "Run an executable and print its standard output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ctx, err := setup(cmd.Context(), opts, logOut)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("split") {
				r.SplitArgs = split
			}
			argString := joinArgs(args[1:], r.SplitArgs)

			if wait > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, wait)
				defer cancel()
			}
			out, err := r.ExecuteContext(ctx, args[0], argString)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&split, "split", false, "split arguments by shell rules instead of passing one argument")
	cmd.Flags().DurationVar(&wait, "wait", 0, "stop waiting after this long (the process keeps running)")
	return cmd
}

func newScriptCmd(opts *options, logOut io.Writer) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "script [flags] <file> [args...]",
		Short: "Run the contents of a script file from memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ctx, err := setup(cmd.Context(), opts, logOut)
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}
			if wait > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, wait)
				defer cancel()
			}
			out, err := r.ExecuteScript(ctx, string(payload), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().DurationVar(&wait, "wait", 0, "stop waiting after this long (the script keeps running)")
	return cmd
}

// setup loads configuration and returns a runner plus a context carrying
// the configured execution policy.
func setup(ctx context.Context, opts *options, logOut io.Writer) (*exrun.Runner, context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, ctx, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	ctx, err = cfg.Policy.Apply(ctx)
	if err != nil {
		return nil, ctx, err
	}
	r := &exrun.Runner{
		Logger:    logger.New(logOut, level, cfg.LogFormat),
		SplitArgs: cfg.SplitArgs,
	}
	return r, ctx, nil
}

// joinArgs rebuilds the argument string from CLI words. With split the words
// are quoted so splitting yields them back unchanged.
func joinArgs(words []string, split bool) string {
	if split {
		return shellquote.Join(words...)
	}
	return strings.Join(words, " ")
}

// ExitCode maps an error returned by the root command to a process exit
// status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *exrun.ProcessError
	if errors.As(err, &pe) {
		switch {
		case pe.Kind == exrun.KindExitCode && pe.ExitCode > 0:
			return pe.ExitCode
		case exrun.IsNotFound(pe):
			return 127
		case exrun.IsPermission(pe):
			return 126
		}
	}
	return 1
}
