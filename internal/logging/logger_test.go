package logging

import (
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestSetLevel(t *testing.T) {
	err := SetLevel("debug")
	assert.NilError(t, err)
	assert.Assert(t, L.Core().Enabled(-1)) // DebugLevel

	err = SetLevel("warn")
	assert.NilError(t, err)
	assert.Assert(t, !L.Core().Enabled(0)) // InfoLevel

	err = SetLevel("info")
	assert.NilError(t, err)
}

func TestSetLevelInvalid(t *testing.T) {
	err := SetLevel("shout")
	assert.Assert(t, cmp.ErrorContains(err, "unrecognized level"))
}
