package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	l, err := New(Config{Level: "debug"})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, zerolog.DebugLevel, l.GetZerolog().GetLevel())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "shouting"})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, zerolog.InfoLevel, l.GetZerolog().GetLevel())
}

func TestNew_FileSinkRedacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "leechbot.log")
	l, err := New(Config{Level: "info", File: path, Redaction: true})
	require.NoError(t, err)

	l.Info().Str("url", "https://x/pw?url=a&token=verysecret").Msg("fetch")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "verysecret")
	assert.Contains(t, string(data), "fetch")
}

func TestSetLevel(t *testing.T) {
	l, err := New(Config{Level: "info"})
	require.NoError(t, err)
	defer l.Close()

	l.SetLevel("error")
	assert.Equal(t, zerolog.ErrorLevel, l.GetZerolog().GetLevel())

	// Unknown level names are ignored.
	l.SetLevel("bogus")
	assert.Equal(t, zerolog.ErrorLevel, l.GetZerolog().GetLevel())
}
