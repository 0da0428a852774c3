package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	log := New(Options{})
	require.NotNil(t, log)
	log.Warn("console only")
}

func TestNewWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log := New(Options{NoColor: true, LogFile: path})
	log.Debugw("file sink check", "k", "v")
	_ = log.Sync() // stderr may not support sync; the file sink flushes per write

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file sink check")
}
