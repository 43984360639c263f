package fslist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLister_List(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte("[project]\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "nested"), 0o755))

	entries, err := Lister{}.List(dir)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pyproject.toml", "src/"}, entries)
}

func TestLister_ListRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "go.mod")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Lister{}.List(file)
	assert.Error(t, err)

	_, err = Lister{}.List(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLister_ReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meltano.yml"), []byte("jobs: []\n"), 0o644))

	data, err := Lister{}.ReadFile(filepath.Join(dir, "meltano.yml"))

	require.NoError(t, err)
	assert.Equal(t, "jobs: []\n", string(data))
}
