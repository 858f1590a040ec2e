package cliopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
)

type testOptions struct {
	Organization string
	OutputDir    string `config:"outputdir"`
	Validity     int
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	content := `
organization: Acme Corp
outputdir: /tmp/pki
validity: 5
`
	assert.NilError(t, os.WriteFile(filename, []byte(content), 0o600))

	target := testOptions{Validity: 3}
	err := Load(&target, Options{Filename: filename})
	assert.NilError(t, err)

	assert.Equal(t, target.Organization, "Acme Corp")
	assert.Equal(t, target.OutputDir, "/tmp/pki")
	assert.Equal(t, target.Validity, 5)
}

func TestLoadMissingFile(t *testing.T) {
	err := Load(&testOptions{}, Options{Filename: "/does/not/exist.yaml"})
	assert.ErrorContains(t, err, "failed to open file")
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	assert.NilError(t, os.WriteFile(filename, []byte("organization: Acme Corp\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("organization", "", "")
	flags.Int("validity", 3, "")
	assert.NilError(t, flags.Parse([]string{"--organization", "Globex", "--validity", "7"}))

	target := testOptions{}
	err := Load(&target, Options{Filename: filename, Flags: flags})
	assert.NilError(t, err)

	assert.Equal(t, target.Organization, "Globex")
	assert.Equal(t, target.Validity, 7)
}

func TestDefaultsFromEnv(t *testing.T) {
	t.Setenv("CIMKEYS_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	logLevel := flags.String("log-level", "info", "")
	changed := flags.String("other", "", "")
	assert.NilError(t, flags.Parse([]string{"--other", "set"}))

	t.Setenv("CIMKEYS_OTHER", "ignored")

	err := DefaultsFromEnv("CIMKEYS", flags)
	assert.NilError(t, err)

	assert.Equal(t, *logLevel, "debug")
	assert.Equal(t, *changed, "set")
}
