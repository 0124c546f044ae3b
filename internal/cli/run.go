package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stimweave/stimweave/internal/app"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Block    string
	Log      string
	Listen   string
	Period   time.Duration
	Headless bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <task-path>",
		Short: "Run a task's blocks",
		Long: `Run the blocks of a task definition in declaration order.

The task path is a single .hcl file or a directory of .hcl files. Records
are appended to the sqlite log per run; Ctrl-C interrupts the active run
after its loggers flush.

Example:
  stimweave run --log ./session.db ./tasks/oddball
  stimweave run --block practice --listen :8489 ./tasks/oddball.hcl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Block, "block", "b", "", "run only the named block")
	cmd.Flags().StringVar(&opts.Log, "log", "", "sqlite log file (empty keeps records in memory)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "websocket input endpoint address")
	cmd.Flags().DurationVar(&opts.Period, "period", app.DefaultFramePeriod, "tick period")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "suppress console presentation output")

	return cmd
}

func runTask(opts *RunOptions, taskPath string, cmd *cobra.Command) error {
	cfg, err := app.NewConfig(app.Config{
		TaskPath:    taskPath,
		Block:       opts.Block,
		LogPath:     opts.Log,
		FramePeriod: opts.Period,
		ListenAddr:  opts.Listen,
		Headless:    opts.Headless,
		LogFormat:   opts.LogFormat,
		LogLevel:    opts.LogLevel,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.New(cmd.OutOrStdout(), cfg).Run(ctx)
}
