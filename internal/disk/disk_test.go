package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broom/internal/disk"
)

func TestMeasureDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one"), make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "two"), make([]byte, 20), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "three"), make([]byte, 30), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(dir, "one"), filepath.Join(dir, "link")))

	u, err := disk.Measure(dir)
	require.NoError(t, err)
	assert.Equal(t, disk.Usage{Bytes: 60, Files: 3}, u)
}

func TestMeasureFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "script.pyc")
	require.NoError(t, os.WriteFile(file, make([]byte, 7), 0o644))

	u, err := disk.Measure(file)
	require.NoError(t, err)
	assert.Equal(t, disk.Usage{Bytes: 7, Files: 1}, u)
}

func TestMeasureMissing(t *testing.T) {
	t.Parallel()

	_, err := disk.Measure(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFree(t *testing.T) {
	t.Parallel()

	free, total, err := disk.Free(t.TempDir())
	require.NoError(t, err)
	assert.Positive(t, total)
	assert.GreaterOrEqual(t, total, free)
}
