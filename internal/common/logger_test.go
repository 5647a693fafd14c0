package common

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetupLoggerTo_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelInfo, "json"))

	LogInfo("imported batch", Fields{"accepted": 10})
	LogDebug("hidden", nil)

	out := buf.String()
	assert.Contains(t, out, `"msg":"imported batch"`)
	assert.Contains(t, out, `"accepted":10`)
	assert.NotContains(t, out, "hidden")
}

func TestSetupLoggerTo_RejectsUnknownFormat(t *testing.T) {
	assert.ErrorIs(t, SetupLoggerTo(&bytes.Buffer{}, slog.LevelInfo, "xml"), ErrInvalidConfig)
}
