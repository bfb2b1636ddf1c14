package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
	return path
}

func TestIsInputFile(t *testing.T) {
	assert.True(t, IsInputFile("export.csv"))
	assert.True(t, IsInputFile("EXPORT.XLSX"))
	assert.True(t, IsInputFile("old.xls"))
	assert.False(t, IsInputFile("notes.txt"))
	assert.False(t, IsInputFile("archive.csv.gz"))
	assert.False(t, IsInputFile("noext"))
}

func TestFindInputFilesOldestFirst(t *testing.T) {
	in := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, in, "b.csv", base.Add(2*time.Minute))
	touch(t, in, "a.xlsx", base)
	touch(t, in, "ignored.txt", base.Add(time.Minute))
	require.NoError(t, os.Mkdir(filepath.Join(in, "sub.csv"), 0o755))

	d := NewDiscovery(in, t.TempDir())
	files, err := d.FindInputFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.xlsx", files[0].Name)
	assert.Equal(t, "b.csv", files[1].Name)
}

func TestFindOutputFilesNewestFirst(t *testing.T) {
	out := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, out, "old.yaml", base)
	touch(t, out, "new.yaml", base.Add(time.Minute))
	touch(t, out, "new.yaml.bak.1", base.Add(2*time.Minute))

	d := NewDiscovery(t.TempDir(), out)
	files, err := d.FindOutputFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "new.yaml", files[0].Name)
}

func TestFindInputFilesMissingDir(t *testing.T) {
	d := NewDiscovery(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	_, err := d.FindInputFiles()
	assert.Error(t, err)
}
