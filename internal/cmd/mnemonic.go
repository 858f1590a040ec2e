package cmd

import (
	"github.com/spf13/cobra"
)

func newMnemonicCmd(cli *CLI) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "mnemonic",
		Short: "Print the master seed as a 24-word backup phrase",
		Long: `Derive the master seed and print it as a BIP39 phrase for paper
backup. The phrase carries the full seed; anyone holding it can rebuild
the entire certificate hierarchy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd.Flags()); err != nil {
				return err
			}

			master, err := deriveMaster(cli, &opts)
			if err != nil {
				return err
			}
			defer master.Zero()

			phrase, err := master.Mnemonic()
			if err != nil {
				return err
			}

			cli.Output("%s", phrase)
			return nil
		},
	}

	addGenerateFlags(cmd.Flags(), &opts)

	return cmd
}
