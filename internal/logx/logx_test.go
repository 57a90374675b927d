package logx

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesFileAndConsole(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "state", "rebase.log")
	var console bytes.Buffer
	closer, err := Setup(Options{Level: "debug", File: path, Console: true, Stderr: &console})
	require.NoError(t, err)

	Get("resolver").Debug().Str("key", "flutter").Msg("resolving")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"resolver"`)
	assert.Contains(t, string(data), `"message":"resolving"`)
	assert.Contains(t, console.String(), "resolving")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
