package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

// newTestContext returns a context carrying a CLI wired to buffers, so
// commands run through Run write to memory instead of the terminal.
func newTestContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	cli := &CLI{
		Stdin:  &bytes.Buffer{},
		Stdout: out,
		Stderr: out,
		table:  newTable(out),
	}

	return context.WithValue(context.Background(), ctxKey, cli), out
}

func TestVersionCmd(t *testing.T) {
	ctx, out := newTestContext(t)

	err := Run(ctx, "version")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out.String(), "cim-keys version"))
}

func TestStrengthCmd(t *testing.T) {
	t.Run("strong passphrase", func(t *testing.T) {
		ctx, out := newTestContext(t)

		err := Run(ctx, "strength", "alpha bravo charlie delta echo foxtrot")
		assert.NilError(t, err)
		assert.Assert(t, is.Contains(out.String(), "Strength: strong"))
		assert.Assert(t, is.Contains(out.String(), "Words:    6"))
	})

	t.Run("weak passphrase fails", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := Run(ctx, "strength", "password")
		assert.ErrorContains(t, err, "too weak")
	})

	t.Run("no passphrase in non-interactive mode", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := Run(ctx, "strength", "--non-interactive")
		assert.ErrorContains(t, err, "No passphrase given")
	})
}

func TestRootCmd_RequiresOrgID(t *testing.T) {
	t.Setenv("CIMKEYS_PASSPHRASE", "alpha bravo charlie delta")
	ctx, _ := newTestContext(t)

	err := Run(ctx, "root", "--insecure-test-kdf", "--common-name", "Acme Root CA", "--org", "Acme Corp")
	assert.ErrorContains(t, err, "organization identifier is required")
}

func TestRootCmd_RejectsExplicitZeroFlags(t *testing.T) {
	for _, flag := range []string{"years", "path-len"} {
		ctx, _ := newTestContext(t)

		err := Run(ctx, "root", "--"+flag, "0")
		assert.ErrorContains(t, err, "must be at least 1", flag)
	}
}

func TestServerCmd_RequiresUnit(t *testing.T) {
	ctx, _ := newTestContext(t)

	err := Run(ctx, "server", "--common-name", "api.acme.example")
	assert.ErrorContains(t, err, "No signing intermediate specified")
}

func TestRootCmd_RejectsWeakPassphrase(t *testing.T) {
	t.Setenv("CIMKEYS_PASSPHRASE", "password")
	ctx, _ := newTestContext(t)

	err := Run(ctx, "root",
		"--insecure-test-kdf",
		"--org-id", "acme",
		"--org", "Acme Corp",
		"--common-name", "Acme Root CA")
	assert.ErrorContains(t, err, "too weak")
}

func TestHierarchyCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping key derivation")
	}

	t.Setenv("CIMKEYS_PASSPHRASE", "correct horse battery staple")
	dir := t.TempDir()

	t.Run("root", func(t *testing.T) {
		ctx, out := newTestContext(t)

		err := Run(ctx, "root",
			"--insecure-test-kdf",
			"--org-id", "acme",
			"--org", "Acme Corp",
			"--common-name", "Acme Root CA",
			"--out", dir)
		assert.NilError(t, err)
		assert.Assert(t, is.Contains(out.String(), "SHA-256 fingerprint:"))

		assertFileMode(t, filepath.Join(dir, "root-ca.crt"), 0o644)
		assertFileMode(t, filepath.Join(dir, "root-ca.key"), 0o600)
	})

	t.Run("intermediate", func(t *testing.T) {
		ctx, out := newTestContext(t)

		err := Run(ctx, "intermediate",
			"--insecure-test-kdf",
			"--org-id", "acme",
			"--org", "Acme Corp",
			"--unit", "Engineering",
			"--common-name", "Acme Engineering CA",
			"--out", dir)
		assert.NilError(t, err)
		assert.Assert(t, is.Contains(out.String(), "intermediate-engineering.crt"))

		assertFileMode(t, filepath.Join(dir, "intermediate-engineering.crt"), 0o644)
		assertFileMode(t, filepath.Join(dir, "intermediate-engineering.key"), 0o600)
	})

	t.Run("server", func(t *testing.T) {
		ctx, out := newTestContext(t)

		err := Run(ctx, "server",
			"--insecure-test-kdf",
			"--org-id", "acme",
			"--common-name", "api.acme.example",
			"--unit", "Engineering",
			"--san", "www.acme.example",
			"--out", dir)
		assert.NilError(t, err)
		assert.Assert(t, is.Contains(out.String(), "server-api.acme.example.crt"))
	})

	t.Run("validate the chain", func(t *testing.T) {
		for _, name := range []string{
			"root-ca.crt",
			"intermediate-engineering.crt",
			"server-api.acme.example.crt",
		} {
			ctx, out := newTestContext(t)

			err := Run(ctx, "validate", filepath.Join(dir, name))
			assert.NilError(t, err, name)
			assert.Assert(t, is.Contains(out.String(), "RFC 5280 compliant"), name)
		}
	})

	t.Run("server without intermediate fails", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := Run(ctx, "server",
			"--insecure-test-kdf",
			"--org-id", "acme",
			"--common-name", "api.acme.example",
			"--unit", "Marketing",
			"--out", dir)
		assert.ErrorContains(t, err, "Cannot read the signing CA certificate")
	})
}

func TestMnemonicCmd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping key derivation")
	}

	t.Setenv("CIMKEYS_PASSPHRASE", "correct horse battery staple")

	ctx, out := newTestContext(t)

	err := Run(ctx, "mnemonic", "--insecure-test-kdf", "--org-id", "acme")
	assert.NilError(t, err)

	words := strings.Fields(strings.TrimSpace(out.String()))
	assert.Equal(t, len(words), 24)

	// Same passphrase and org always yield the same phrase.
	ctx2, out2 := newTestContext(t)
	err = Run(ctx2, "mnemonic", "--insecure-test-kdf", "--org-id", "acme")
	assert.NilError(t, err)
	assert.Equal(t, out.String(), out2.String())
}

func TestValidateCmd(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		ctx, _ := newTestContext(t)

		err := Run(ctx, "validate", filepath.Join(t.TempDir(), "nope.crt"))
		assert.ErrorContains(t, err, "Cannot read the certificate file")
	})

	t.Run("garbage input", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "garbage.crt")
		assert.NilError(t, os.WriteFile(path, []byte("not a certificate"), 0o644))

		ctx, _ := newTestContext(t)

		err := Run(ctx, "validate", path)
		assert.ErrorContains(t, err, "Cannot parse the certificate")
	})
}

func assertFileMode(t *testing.T, path string, mode os.FileMode) {
	t.Helper()

	fi, err := os.Stat(path)
	assert.NilError(t, err)
	assert.Equal(t, fi.Mode().Perm(), mode, path)
}
