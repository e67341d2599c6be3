package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpipette/pipet/pkg/config"
)

func TestLoadWritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipet.json")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)

	// The defaults were persisted.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipet.json")

	c := config.Default()
	c.Device = "/dev/ttyACM1"
	c.Baud = 250000
	c.TolerateTimeout = false
	require.NoError(t, c.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
