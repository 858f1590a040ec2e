// Package cmd implements the cim-keys command line interface. Commands own
// all terminal and disk I/O; the derivation and certificate engines stay
// pure.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cimkeys/cim-keys/internal/cmd/cliopts"
	"github.com/cimkeys/cim-keys/internal/logging"
)

// Run the main CLI command with the given args. The args should not contain
// the name of the binary (ex: os.Args[1:]).
func Run(ctx context.Context, args ...string) error {
	cli := newCLI(ctx)
	cmd := NewRootCmd(cli)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type rootOptions struct {
	LogLevel string
}

func NewRootCmd(cli *CLI) *cobra.Command {
	cobra.EnableCommandSorting = false

	var rootOpts rootOptions

	rootCmd := &cobra.Command{
		Use:           "cim-keys",
		Short:         "Deterministic offline PKI from a single passphrase",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cliopts.DefaultsFromEnv("CIMKEYS", cmd.Flags()); err != nil {
				return err
			}
			return logging.SetLevel(rootOpts.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(
		newStrengthCmd(cli),
		newRootCACmd(cli),
		newIntermediateCmd(cli),
		newServerCmd(cli),
		newValidateCmd(cli),
		newMnemonicCmd(cli),
		newVersionCmd(cli),
	)

	rootCmd.PersistentFlags().Bool("help", false, "Display help")
	rootCmd.PersistentFlags().StringVar(&rootOpts.LogLevel, "log-level", "info", "Show logs when running the command [error, warn, info, debug]")

	return rootCmd
}

func addNonInteractiveFlag(flags *pflag.FlagSet, bind *bool) {
	isNonInteractiveMode := os.Stdin == nil || !term.IsTerminal(int(os.Stdin.Fd()))
	flags.BoolVar(bind, "non-interactive", isNonInteractiveMode, "Disable all prompts for input")
}
