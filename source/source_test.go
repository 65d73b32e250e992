package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetSys/kappa/source"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.py")
	store := source.New()
	ctx := context.Background()

	want := []byte("def handler(event, context):\n    return event\n")
	require.NoError(t, store.Write(ctx, path, want))

	got, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadMissingFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.py")
	_, err := source.New().Read(context.Background(), path)
	assert.Error(t, err)
}

func TestWriteOverwritesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.py")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	store := source.New()
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, path, []byte("new")))

	got, err := store.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
