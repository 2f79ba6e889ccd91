package logutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		_, _, err := New("loud", "")
		assert.Error(t, err)
	})

	t.Run("stderr by default", func(t *testing.T) {
		logger, closeLog, err := New("info", "")
		require.NoError(t, err)
		defer closeLog()
		logger.Info().Msg("ok")
	})

	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "server.log")
		logger, closeLog, err := New("debug", path)
		require.NoError(t, err)

		logger.Info().Str("component", "test").Msg("hello")
		closeLog()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"hello"`)
		assert.Contains(t, string(data), `"component":"test"`)
	})
}
