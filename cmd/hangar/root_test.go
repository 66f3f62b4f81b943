package main

import (
	"testing"

	"github.com/aretw0/hangar/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFlags_StoreHelpListsBackends(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("store")
	require.NotNil(t, flag)
	for _, backend := range config.ValidBackends() {
		assert.Contains(t, flag.Usage, backend)
	}
	assert.Contains(t, flag.Usage, config.BackendFile)
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "serve", "validate", "describe", "graph", "inspect", "mcp", "version"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}
