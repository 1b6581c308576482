package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}

func TestRootCmd_MissingAPIKey(t *testing.T) {
	t.Setenv("POSTHOG_API_KEY", "")
	t.Setenv("POSTHOG_KEY", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTHOG_API_KEY is required")
}
