package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/musicflow/pipeline/fs"
)

func TestScopeIsolation(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()

	a, err := fs.NewScope(baseDir)
	require.NoError(t, err)
	b, err := fs.NewScope(baseDir)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.DirExists(t, a.Dir())
	assert.DirExists(t, b.Dir())
}

func TestScopeFindPrefersExtensionOrder(t *testing.T) {
	t.Parallel()

	scope, err := fs.NewScope(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = scope.Release() })

	for _, name := range []string{"audio.webm", "audio.m4a", "audio.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(scope.Dir(), name), []byte("x"), 0o600))
	}

	path, err := scope.Find("audio", []string{"m4a", "webm", "mp3"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scope.Dir(), "audio.m4a"), path)
}

func TestScopeFindFallsBackToAnyMatch(t *testing.T) {
	t.Parallel()

	scope, err := fs.NewScope(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = scope.Release() })

	require.NoError(t, os.WriteFile(filepath.Join(scope.Dir(), "audio.opus"), []byte("x"), 0o600))

	path, err := scope.Find("audio", []string{"m4a", "webm"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scope.Dir(), "audio.opus"), path)
}

func TestScopeFindIgnoresPartialDownloads(t *testing.T) {
	t.Parallel()

	scope, err := fs.NewScope(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = scope.Release() })

	require.NoError(t, os.WriteFile(filepath.Join(scope.Dir(), "audio.m4a.part"), []byte("x"), 0o600))

	_, err = scope.Find("audio", []string{"m4a"})
	assert.ErrorIs(t, err, fs.ErrNoArtifact)
}

func TestScopeReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	scope, err := fs.NewScope(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(scope.Dir(), "audio.m4a"), []byte("x"), 0o600))

	require.NoError(t, scope.Release())
	assert.NoDirExists(t, scope.Dir())

	require.NoError(t, scope.Release())
}
