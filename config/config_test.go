package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetSys/kappa/config"
)

func TestDefaultIsZeroValue(t *testing.T) {
	assert.Equal(t, config.Options{}, config.Default())
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	opts, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), opts)
}

func TestLoadParsesManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kappa.yaml")
	manifest := "autoPause: true\nignoreIncantation: do-not-transform\nextraBuiltins:\n  - my_builtin\n  - another\n"
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0644))

	opts, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, opts.AutoPause)
	assert.Equal(t, "do-not-transform", opts.IgnoreIncantation)
	assert.Equal(t, []string{"my_builtin", "another"}, opts.ExtraBuiltins)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kappa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoPause: [this is not a bool"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
