package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o644))

	nested := filepath.Join(root, "internal", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	tests := []struct {
		name  string
		start string
	}{
		{name: "root itself", start: root},
		{name: "nested directory", start: nested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindProjectRoot(tt.start)
			require.NoError(t, err)

			want, err := filepath.EvalSymlinks(root)
			require.NoError(t, err)
			gotResolved, err := filepath.EvalSymlinks(got)
			require.NoError(t, err)
			assert.Equal(t, want, gotResolved)
		})
	}
}

func TestFindProjectRoot_NotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindProjectRoot(dir); err == nil {
		t.Skip("temp dir is inside a Go module")
	}

	_, err := FindProjectRoot(dir)
	assert.ErrorIs(t, err, ErrProjectRootNotFound)
}

func TestResolveDataDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0o644))

	abs := filepath.Join(root, "abs")
	assert.Equal(t, abs, ResolveDataDir(root, abs))
	assert.Equal(t, filepath.Join(root, ".nqcrypt"), ResolveDataDir(root, ".nqcrypt"))
}

func TestEnsureWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureWritableDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEnsureWritableDir_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Error(t, EnsureWritableDir(file))
}
