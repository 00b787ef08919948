package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	require.NotNil(t, cmd)
	assert.Equal(t, "stacks", cmd.Use)
	assert.Contains(t, cmd.Long, "interactive UI")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("dev")
	commands := []string{"setup", "login", "logout", "whoami", "books", "loans", "fines", "borrow", "return", "pay", "version"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("dev")

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "server", "store"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestBooksCommandFlags(t *testing.T) {
	cmd := NewRootCommand("dev")
	booksCmd, _, err := cmd.Find([]string{"books"})
	require.NoError(t, err)

	pageFlag := booksCmd.Flags().Lookup("page")
	require.NotNil(t, pageFlag)
	assert.Equal(t, "p", pageFlag.Shorthand)
	assert.Equal(t, "1", pageFlag.DefValue)

	searchFlag := booksCmd.Flags().Lookup("search")
	require.NotNil(t, searchFlag)
	assert.Equal(t, "s", searchFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand("dev")
	cmd.SetArgs([]string{"version", "--format", "xml"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "stacks 1.2.3\n", buf.String())
}
