package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/lensesio/tableprinter"
)

// CLI exposes common dependencies to commands.
type CLI struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	table *tableprinter.Printer
}

// Output writes to CLI.Stdout. Output is like fmt.Printf except that it
// always adds a trailing newline. To write output without a trailing newline
// use CLI.Stdout directly.
func (c *CLI) Output(format string, args ...interface{}) {
	fmt.Fprintf(c.Stdout, format+"\n", args...)
}

func (c *CLI) Table(args interface{}) {
	c.table.Print(args)
}

// promptPassphrase asks for the master passphrase on the terminal. When
// confirm is set the passphrase is asked twice and both entries must match.
func (c *CLI) promptPassphrase(confirm bool) (string, error) {
	if phrase, ok := os.LookupEnv("CIMKEYS_PASSPHRASE"); ok {
		return phrase, nil
	}

	var passphrase string
	if err := survey.AskOne(&survey.Password{Message: "Master passphrase:"}, &passphrase, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return "", err
	}

	if confirm {
		var again string
		if err := survey.AskOne(&survey.Password{Message: "Re-enter passphrase:"}, &again, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
			return "", err
		}

		if passphrase != again {
			return "", Error{Message: "Passphrases do not match"}
		}
	}

	return passphrase, nil
}

// key is a type to ensure no other package can access the CLI value in
// context.
type key struct{}

var ctxKey = key{}

// newCLI looks for a CLI stored in context. If one exists it is returned,
// otherwise a new CLI is created on the standard streams. The context lookup
// is a shim for testing, allowing tests to use buffers instead.
func newCLI(ctx context.Context) *CLI {
	cli, ok := ctx.Value(ctxKey).(*CLI)
	if ok {
		return cli
	}

	return &CLI{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		table:  newTable(os.Stdout),
	}
}

func newTable(out io.Writer) *tableprinter.Printer {
	table := tableprinter.New(out)
	table.HeaderAlignment = tableprinter.AlignLeft
	table.AutoWrapText = false
	table.DefaultAlignment = tableprinter.AlignLeft
	table.CenterSeparator = ""
	table.ColumnSeparator = ""
	table.RowSeparator = ""
	table.HeaderLine = false
	table.BorderBottom = false
	table.BorderLeft = false
	table.BorderRight = false
	table.BorderTop = false
	return table
}
