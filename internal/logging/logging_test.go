package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "WARN", "error"} {
		l, err := New(lvl, "development", "")
		require.NoError(t, err, lvl)
		assert.NotNil(t, l)
	}

	_, err := New("loud", "development", "")
	assert.Error(t, err)
}

func TestNew_ProductionWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentrypath.log")
	l, err := New("info", "production", path)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("persist failed", zap.String("op", "complete_module"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"op":"complete_module"`)
	assert.Contains(t, out, `"logger":"sentrypath"`)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
}
