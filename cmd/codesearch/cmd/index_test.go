package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexCmd_HasFlags(t *testing.T) {
	// Given: an index command
	cmd := newIndexCmd()

	// Then: it should expose include/exclude/no-tui flags
	assert.NotNil(t, cmd.Flags().Lookup("include"))
	assert.NotNil(t, cmd.Flags().Lookup("exclude"))
	noTUI := cmd.Flags().Lookup("no-tui")
	assert.NotNil(t, noTUI)
	assert.Equal(t, "false", noTUI.DefValue)
}

func TestIndexCmd_AcceptsAtMostOnePathArg(t *testing.T) {
	// Given: an index command
	cmd := newIndexCmd()

	// Then: it rejects more than one positional argument
	assert.Error(t, cmd.Args(cmd, []string{"a", "b"}))
	assert.NoError(t, cmd.Args(cmd, []string{"a"}))
	assert.NoError(t, cmd.Args(cmd, []string{}))
}
