package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with the given args and captures
// stdout and stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	root := NewRootCommand()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	root.SetOut(outBuf)
	root.SetErr(errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	stdout, _, err := executeCommand("--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["signature"])
	assert.True(t, names["alphabet"])
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	_, _, err := executeCommand("nonsense")
	require.Error(t, err)
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	cmd := &cobra.Command{Use: "orphan"}
	_, err := GetCLIContext(cmd)
	require.Error(t, err)
}

func TestPersistentPreRun_InitializesContext(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"alphabet", "info", "does-not-exist.alpha"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	// The command fails on the missing file, but only after the pre-run
	// installed the CLI context.
	err := root.Execute()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "context")
}
