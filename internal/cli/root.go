// Package cli defines the stimweave command tree. Commands only parse flags
// and build an app.Config; all real work happens in the app package.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	LogLevel  string
	LogFormat string
}

// ValidFormats defines the allowed log output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the stimweave CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stimweave",
		Short: "Stimweave - tick-exact stimulus and response sequencing",
		Long: "Stimweave runs declarative cognitive-experiment tasks: trees of\n" +
			"composable actions advanced in lockstep with external time and input.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "logging level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
