package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedAndIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2025", "RO1", "Primite", "03")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "x")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	require.Error(t, EnsureDir(p))
}

func TestIsOccupied(t *testing.T) {
	tmp := t.TempDir()

	occupied, err := IsOccupied(filepath.Join(tmp, "missing"))
	require.NoError(t, err)
	assert.False(t, occupied)

	occupied, err = IsOccupied(tmp)
	require.NoError(t, err)
	assert.False(t, occupied)

	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub"), 0o755))
	occupied, err = IsOccupied(tmp)
	require.NoError(t, err)
	assert.True(t, occupied, "a subdirectory counts as an entry")
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"3001234567":   "3001234567",
		"a-b_c.d":      "a-b_c.d",
		"../../etc":    "_.._etc",
		"with space/x": "with_space_x",
		"  ":           "_",
		"..":           "_",
		"***":          "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeName(in), "input %q", in)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "token.json")

	require.NoError(t, WriteFileAtomic(p, []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(p, []byte("two"), 0o600))

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope", "token.json")
	require.Error(t, WriteFileAtomic(p, []byte("x"), 0o600))
}
