package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cimkeys/cim-keys/internal/passphrase"
)

func newStrengthCmd(cli *CLI) *cobra.Command {
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "strength [PASSPHRASE]",
		Short: "Estimate the strength of a passphrase",
		Long: `Estimate the entropy of a passphrase before using it as the master
passphrase for an organization. The estimate is conservative: multi-word
phrases are scored as if drawn from a diceware list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var phrase string
			if len(args) == 1 {
				phrase = args[0]
			} else {
				if nonInteractive {
					return Error{Message: "No passphrase given", Suggestion: "Pass the passphrase as an argument, or run interactively."}
				}

				var err error
				phrase, err = cli.promptPassphrase(false)
				if err != nil {
					return err
				}
			}

			est := passphrase.Score(phrase)

			cli.Output("Entropy:  %.1f bits", est.EntropyBits)
			cli.Output("Strength: %s", est.Strength)
			cli.Output("Words:    %d", est.WordCount)
			cli.Output("Length:   %d", est.Length)

			for _, suggestion := range est.Suggestions {
				cli.Output("  - %s", suggestion)
			}

			if est.Strength == passphrase.TooWeak {
				return Error{Message: "Passphrase is too weak to protect a certificate hierarchy"}
			}

			return nil
		},
	}

	addNonInteractiveFlag(cmd.Flags(), &nonInteractive)

	return cmd
}
