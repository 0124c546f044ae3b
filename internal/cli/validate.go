package cli

import (
	"github.com/spf13/cobra"

	"github.com/stimweave/stimweave/internal/app"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <task-path>",
		Short: "Check a task definition without running it",
		Long: `Parse a task definition, expand its templates, and build every block
tree. Configuration, timing, and formula errors surface here instead of
mid-session.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				TaskPath:  args[0],
				LogFormat: rootOpts.LogFormat,
				LogLevel:  rootOpts.LogLevel,
			})
			if err != nil {
				return err
			}
			return app.New(cmd.OutOrStdout(), cfg).Validate(cmd.Context())
		},
	}
	return cmd
}
