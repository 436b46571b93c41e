package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := GetRootCmd()

	assert.Equal(t, "leechbot", cmd.Use)
	assert.Equal(t, version, cmd.Version)

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	flag = cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
}

func TestStartCommandRegistered(t *testing.T) {
	var found bool
	for _, sub := range GetRootCmd().Commands() {
		if sub.Use == "start" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, version, GetVersion())
}
