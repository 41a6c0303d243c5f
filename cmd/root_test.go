package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "validate", "runs", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "contacts-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"crm", "google", "out", "dry-run", "columns", "col-phone", "history", "batch-size", "dedupe"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s", name)
	}
	history := runCmd.Flags().Lookup("history")
	require.NotNil(t, history)
	assert.Equal(t, "true", history.DefValue)
	batch := runCmd.Flags().Lookup("batch-size")
	require.NotNil(t, batch)
	assert.Equal(t, "3000", batch.DefValue)
	assumeDDI := runCmd.Flags().Lookup("assume-ddi")
	require.NotNil(t, assumeDDI)
	assert.Equal(t, "prepend the default DDI when the number does not start with it", assumeDDI.Usage)
}

func TestValidateCommand_Flags(t *testing.T) {
	for _, name := range []string{"crm", "google", "columns", "col-name", "preview"} {
		assert.NotNil(t, validateCmd.Flags().Lookup(name), "validate should have --%s", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "stats"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}
