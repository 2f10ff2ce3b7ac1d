package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudml/internal/logging"
)

func TestFileIsAppended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "pipeline.log")

	for i := 0; i < 2; i++ {
		logger, closer, err := logging.New(path, nil, zerolog.InfoLevel)
		require.NoError(t, err)
		logger.Info().Str("stage", "loaded").Int("rows", 10).Msg("stage transition")
		require.NoError(t, closer.Close())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"stage":"loaded"`)
	assert.Contains(t, lines[0], `"time"`)
}

func TestConsoleMirrorAndLevel(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := logging.New("", &console, zerolog.WarnLevel)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logging.ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("loud"))
}
