package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStart_MissingBotToken(t *testing.T) {
	t.Setenv("LEECHBOT_TELEGRAM_BOT_TOKEN", "")
	t.Setenv("BOT_TOKEN", "")

	err := runStart(startCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token")
}

func TestRunStart_BadConfigFile(t *testing.T) {
	prev := cfgFile
	cfgFile = "/nonexistent/leechbot.json"
	defer func() { cfgFile = prev }()

	err := runStart(startCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
