package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreFetchAndClose(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()

	modelDir := filepath.Join(root, "run1")
	require.NoError(t, os.MkdirAll(filepath.Join(modelDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "Modelfile"), []byte("FROM ./m.gguf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "m.gguf"), []byte("weights"), 0o644))

	b, err := NewLocalStore(root, scratch).Fetch(context.Background(), "run1")
	require.NoError(t, err)

	assert.Equal(t, scratch, filepath.Dir(b.Dir))
	assert.True(t, strings.HasPrefix(filepath.Base(b.Dir), "run1-"))
	names := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"Modelfile", "m.gguf"}, names)

	data, err := os.ReadFile(filepath.Join(b.Dir, "m.gguf"))
	require.NoError(t, err)
	assert.Equal(t, "weights", string(data))

	require.NoError(t, b.Close())
	_, err = os.Stat(b.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreFetchesArePrivate(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "m"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "m", "w.bin"), []byte("weights"), 0o644))

	store := NewLocalStore(root, scratch)
	a, err := store.Fetch(context.Background(), "m")
	require.NoError(t, err)
	b, err := store.Fetch(context.Background(), "m")
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir, b.Dir)
	require.NoError(t, a.Close())

	data, err := os.ReadFile(filepath.Join(b.Dir, "w.bin"))
	require.NoError(t, err, "closing one bundle must not touch another")
	assert.Equal(t, "weights", string(data))
}

func TestLocalStoreMissingModel(t *testing.T) {
	_, err := NewLocalStore(t.TempDir(), t.TempDir()).Fetch(context.Background(), "nope")
	require.Error(t, err)
}

func TestBundleCloseNil(t *testing.T) {
	var b *Bundle
	assert.NoError(t, b.Close())
}

func TestScratchDirContainsTraversal(t *testing.T) {
	root := t.TempDir()
	dir, err := scratchDir(root, "../../etc")
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "etc-"))

	dir, err = scratchDir(root, "team/run1")
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "team_run1-"))
}

func TestLocalStoreCanceledFetchLeavesNoScratch(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "m"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "m", "w.bin"), []byte("weights"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalStore(root, scratch).Fetch(ctx, "m")
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
