package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cimkeys/cim-keys/internal"
)

func newVersionCmd(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the version of cim-keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.Output("cim-keys version %s", internal.FullVersion())
			return nil
		},
	}
}
