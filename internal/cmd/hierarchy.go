package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cimkeys/cim-keys/internal/certs"
	"github.com/cimkeys/cim-keys/internal/cmd/cliopts"
	"github.com/cimkeys/cim-keys/internal/events"
	"github.com/cimkeys/cim-keys/internal/logging"
	"github.com/cimkeys/cim-keys/internal/passphrase"
	"github.com/cimkeys/cim-keys/internal/seed"
)

// generateOptions are shared by every certificate generation command. They
// can be loaded from a yaml config file and overridden by flags.
type generateOptions struct {
	OrgID     string `config:"orgid"`
	OutputDir string `config:"outputdir"`

	// TestKDF selects the reduced Argon2id profile. Never use it for real
	// key material.
	TestKDF bool `config:"testkdf"`

	configFile     string
	nonInteractive bool
}

func addGenerateFlags(flags *pflag.FlagSet, opts *generateOptions) {
	flags.StringVar(&opts.configFile, "config", "", "Path to a yaml config file with generation defaults")
	flags.StringVar(&opts.OrgID, "org-id", "", "Organization identifier used to derive the master seed salt")
	flags.StringVar(&opts.OutputDir, "out", ".", "Directory to write certificate and key files to")
	flags.BoolVar(&opts.TestKDF, "insecure-test-kdf", false, "Use the reduced KDF profile (testing only, never for real keys)")
	addNonInteractiveFlag(flags, &opts.nonInteractive)

	if flag := flags.Lookup("insecure-test-kdf"); flag != nil {
		flag.Hidden = true
	}
}

func (o *generateOptions) load(flags *pflag.FlagSet) error {
	if o.configFile == "" {
		return nil
	}
	return cliopts.Load(o, cliopts.Options{Filename: o.configFile, Flags: flags})
}

// deriveMaster obtains the passphrase, gates it on the strength estimate,
// and runs the memory-hard derivation. The caller owns zeroing the returned
// seed.
func deriveMaster(cli *CLI, opts *generateOptions) (*seed.Seed, error) {
	if opts.OrgID == "" {
		return nil, Error{Message: "An organization identifier is required", Suggestion: "Pass --org-id or set orgid in the config file."}
	}

	if opts.nonInteractive {
		if _, ok := os.LookupEnv("CIMKEYS_PASSPHRASE"); !ok {
			return nil, Error{Message: "No passphrase available", Suggestion: "Set CIMKEYS_PASSPHRASE or run interactively."}
		}
	}

	phrase, err := cli.promptPassphrase(false)
	if err != nil {
		return nil, err
	}

	if est := passphrase.Score(phrase); est.Strength == passphrase.TooWeak {
		return nil, Error{
			Message:    fmt.Sprintf("Passphrase is too weak (%.0f bits)", est.EntropyBits),
			Suggestion: "Run 'cim-keys strength' for suggestions.",
		}
	}

	params := seed.ProductionParams
	if opts.TestKDF {
		logging.Warnf("using the reduced KDF profile; derived keys are not production grade")
		params = seed.TestParams
	}

	logging.Infof("deriving master seed (this takes a while and ~1GiB of memory)")
	start := time.Now()

	// DeriveMaster wipes this copy; the prompted string itself is immutable
	// and stays behind, see DESIGN.md.
	master, err := seed.DeriveMaster([]byte(phrase), opts.OrgID, params)
	if err != nil {
		return nil, err
	}

	logging.Debugf("master seed derived in %s", time.Since(start))
	return master, nil
}

// rejectExplicitZero fails when the operator passes 0 to a flag whose zero
// value would otherwise be silently replaced by the parameter default.
func rejectExplicitZero(flags *pflag.FlagSet, names ...string) error {
	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if flag.Value.String() == "0" {
			return Error{
				Message:    fmt.Sprintf("--%s must be at least 1", name),
				Suggestion: fmt.Sprintf("Leave --%s unset to use the default.", name),
			}
		}
	}
	return nil
}

func publishEvents(ctx context.Context, evs []events.Event) error {
	sink := events.LogSink{}
	for _, event := range evs {
		if err := sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("publishing %s: %w", event.Name(), err)
		}
	}
	return nil
}

// writeCertificate writes the PEM artifacts for a certificate under dir,
// with the private key readable only by the owner.
func writeCertificate(dir, name string, cert *certs.Certificate) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	certPath := filepath.Join(dir, name+".crt")
	if err := os.WriteFile(certPath, cert.CertPEM, 0o644); err != nil {
		return fmt.Errorf("writing certificate: %w", err)
	}

	keyPath := filepath.Join(dir, name+".key")
	if err := os.WriteFile(keyPath, cert.KeyPEM, 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}

	return nil
}

func newRootCACmd(cli *CLI) *cobra.Command {
	var opts generateOptions
	var params certs.RootParams

	cmd := &cobra.Command{
		Use:   "root",
		Short: "Generate a self-signed root CA certificate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd.Flags()); err != nil {
				return err
			}

			if err := rejectExplicitZero(cmd.Flags(), "years", "path-len"); err != nil {
				return err
			}

			master, err := deriveMaster(cli, &opts)
			if err != nil {
				return err
			}
			defer master.Zero()

			caSeed := master.Child(certs.RootLabel)
			defer caSeed.Zero()

			cert, evs, err := certs.GenerateRootCA(caSeed, params, events.NewCorrelation())
			if err != nil {
				return err
			}

			if err := publishEvents(cmd.Context(), evs); err != nil {
				return err
			}

			if err := writeCertificate(opts.OutputDir, certs.RootLabel, cert); err != nil {
				return err
			}

			cli.Output("Root CA written to %s", filepath.Join(opts.OutputDir, certs.RootLabel+".crt"))
			cli.Output("SHA-256 fingerprint: %s", cert.Fingerprint)
			return nil
		},
	}

	flags := cmd.Flags()
	addGenerateFlags(flags, &opts)
	flags.StringVar(&params.Organization, "org", "", "Organization name for the subject DN")
	flags.StringVar(&params.CommonName, "common-name", "", "Common name for the root CA")
	flags.StringVar(&params.Country, "country", "", "Country for the subject DN")
	flags.StringVar(&params.Province, "province", "", "Province for the subject DN")
	flags.StringVar(&params.Locality, "locality", "", "Locality for the subject DN")
	flags.IntVar(&params.ValidityYears, "years", 0, "Validity in years (default 20)")
	flags.IntVar(&params.PathLen, "path-len", 0, "Path length constraint (default 1)")

	return cmd
}

func newIntermediateCmd(cli *CLI) *cobra.Command {
	var opts generateOptions
	var params certs.IntermediateParams
	var caCert, caKey string

	cmd := &cobra.Command{
		Use:   "intermediate",
		Short: "Generate an intermediate CA signed by the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd.Flags()); err != nil {
				return err
			}

			if err := rejectExplicitZero(cmd.Flags(), "years"); err != nil {
				return err
			}

			parentCertPEM, parentKeyPEM, err := readParent(opts.OutputDir, certs.RootLabel, caCert, caKey)
			if err != nil {
				return err
			}

			master, err := deriveMaster(cli, &opts)
			if err != nil {
				return err
			}
			defer master.Zero()

			unit := params.OrganizationalUnit
			if unit == "" {
				unit = params.CommonName
			}
			label := certs.IntermediateLabel(unit)

			interSeed := master.ChildPath(certs.RootLabel, label)
			defer interSeed.Zero()

			cert, evs, err := certs.GenerateIntermediateCA(interSeed, params, parentCertPEM, parentKeyPEM, events.NewCorrelation())
			if err != nil {
				return err
			}

			if err := publishEvents(cmd.Context(), evs); err != nil {
				return err
			}

			if err := writeCertificate(opts.OutputDir, cert.Label, cert); err != nil {
				return err
			}

			cli.Output("Intermediate CA written to %s", filepath.Join(opts.OutputDir, cert.Label+".crt"))
			cli.Output("SHA-256 fingerprint: %s", cert.Fingerprint)
			return nil
		},
	}

	flags := cmd.Flags()
	addGenerateFlags(flags, &opts)
	flags.StringVar(&params.Organization, "org", "", "Organization name for the subject DN")
	flags.StringVar(&params.OrganizationalUnit, "unit", "", "Organizational unit, also names the derivation label")
	flags.StringVar(&params.CommonName, "common-name", "", "Common name for the intermediate CA")
	flags.IntVar(&params.ValidityYears, "years", 0, "Validity in years (default 3)")
	flags.StringVar(&caCert, "ca-cert", "", "Path to the signing CA certificate (default <out>/root-ca.crt)")
	flags.StringVar(&caKey, "ca-key", "", "Path to the signing CA key (default <out>/root-ca.key)")

	return cmd
}

func newServerCmd(cli *CLI) *cobra.Command {
	var opts generateOptions
	var params certs.ServerParams
	var unit string
	var caCert, caKey string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Generate a server certificate signed by an intermediate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd.Flags()); err != nil {
				return err
			}

			if err := rejectExplicitZero(cmd.Flags(), "days"); err != nil {
				return err
			}

			if unit == "" && (caCert == "" || caKey == "") {
				return Error{
					Message:    "No signing intermediate specified",
					Suggestion: "Pass --unit to name the signing intermediate, or --ca-cert and --ca-key explicitly.",
				}
			}

			interLabel := certs.IntermediateLabel(unit)

			parentCertPEM, parentKeyPEM, err := readParent(opts.OutputDir, interLabel, caCert, caKey)
			if err != nil {
				return err
			}

			master, err := deriveMaster(cli, &opts)
			if err != nil {
				return err
			}
			defer master.Zero()

			leafSeed := master.ChildPath(certs.RootLabel, interLabel, certs.ServerLabel(params.CommonName))
			defer leafSeed.Zero()

			cert, evs, err := certs.GenerateServerCertificate(leafSeed, params, parentCertPEM, parentKeyPEM, events.NewCorrelation())
			if err != nil {
				return err
			}

			if err := publishEvents(cmd.Context(), evs); err != nil {
				return err
			}

			if err := writeCertificate(opts.OutputDir, cert.Label, cert); err != nil {
				return err
			}

			cli.Output("Server certificate written to %s", filepath.Join(opts.OutputDir, cert.Label+".crt"))
			cli.Output("SHA-256 fingerprint: %s", cert.Fingerprint)
			return nil
		},
	}

	flags := cmd.Flags()
	addGenerateFlags(flags, &opts)
	flags.StringVar(&params.CommonName, "common-name", "", "Common name, also the first subject alternative name")
	flags.StringVar(&params.Organization, "org", "", "Organization name for the subject DN")
	flags.StringVar(&params.OrganizationalUnit, "org-unit", "", "Organizational unit for the subject DN")
	flags.StringSliceVar(&params.SubjectAltNames, "san", nil, "Additional subject alternative names (DNS names or IPs)")
	flags.IntVar(&params.ValidityDays, "days", 0, "Validity in days (default 90)")
	flags.StringVar(&unit, "unit", "", "Organizational unit of the signing intermediate")
	flags.StringVar(&caCert, "ca-cert", "", "Path to the signing CA certificate (default <out>/intermediate-<unit>.crt)")
	flags.StringVar(&caKey, "ca-key", "", "Path to the signing CA key (default <out>/intermediate-<unit>.key)")

	return cmd
}

// readParent loads the signing CA material, defaulting to the conventional
// file names under the output directory.
func readParent(dir, label, certPath, keyPath string) ([]byte, []byte, error) {
	if certPath == "" {
		certPath = filepath.Join(dir, label+".crt")
	}
	if keyPath == "" {
		keyPath = filepath.Join(dir, label+".key")
	}

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, Error{
			Message:       "Cannot read the signing CA certificate",
			OriginalError: err,
			Suggestion:    "Generate the signing CA first, or pass --ca-cert.",
		}
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, Error{
			Message:       "Cannot read the signing CA key",
			OriginalError: err,
			Suggestion:    "Generate the signing CA first, or pass --ca-key.",
		}
	}

	return certPEM, keyPEM, nil
}
