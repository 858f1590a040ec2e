package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cimkeys/cim-keys/internal/rfc5280"
)

type metadataRow struct {
	Field string `header:"FIELD"`
	Value string `header:"VALUE"`
}

func newValidateCmd(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "validate CERT_FILE",
		Short: "Check a certificate for RFC 5280 compliance",
		Long: `Check a PEM or DER encoded certificate against a set of RFC 5280
profile rules. All findings are reported at once; warnings do not affect
the verdict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return Error{Message: "Cannot read the certificate file", OriginalError: err}
			}

			result, err := rfc5280.Validate(raw)
			if err != nil {
				return Error{
					Message:       "Cannot parse the certificate",
					OriginalError: err,
					Suggestion:    "The file must contain a PEM or DER encoded X.509 certificate.",
				}
			}

			cli.Table(metadataRows(result.Metadata))
			cli.Output("")

			for _, issue := range result.Errors {
				cli.Output("ERROR   %s: %s", issue.Code, issue.Message)
			}
			for _, issue := range result.Warnings {
				cli.Output("WARNING %s: %s", issue.Code, issue.Message)
			}

			if !result.IsValid() {
				return Error{Message: "Certificate is not RFC 5280 compliant"}
			}

			cli.Output("Certificate is RFC 5280 compliant")
			return nil
		},
	}
}

func metadataRows(md rfc5280.Metadata) []metadataRow {
	pathLen := "none"
	if md.PathLen >= 0 {
		pathLen = strconv.Itoa(md.PathLen)
	}

	return []metadataRow{
		{"Version", strconv.Itoa(md.Version)},
		{"Serial", md.SerialNumber},
		{"Subject", dnSummary(md.SubjectCommonName, md.SubjectOrganization)},
		{"Issuer", dnSummary(md.IssuerCommonName, md.IssuerOrganization)},
		{"Not before", md.NotBefore.Format("2006-01-02 15:04:05 MST")},
		{"Not after", md.NotAfter.Format("2006-01-02 15:04:05 MST")},
		{"CA", strconv.FormatBool(md.IsCA)},
		{"Path length", pathLen},
		{"Key usage", strings.Join(md.KeyUsage, ", ")},
		{"Ext key usage", strings.Join(md.ExtendedKeyUsage, ", ")},
		{"SANs", strings.Join(md.SubjectAltNames, ", ")},
		{"SHA-256", md.FingerprintSHA256},
	}
}

func dnSummary(commonName, organization string) string {
	switch {
	case commonName != "" && organization != "":
		return commonName + " (" + organization + ")"
	case commonName != "":
		return commonName
	case organization != "":
		return organization
	}
	return "(empty)"
}
