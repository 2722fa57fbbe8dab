package htmlcache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, dir)

	require.NoError(t, store.SavePage("p1", 1, "<html>page one</html>"))
	require.NoError(t, store.SavePage("p1", 2, "<html>page two</html>"))

	html, ok, err := store.Load("p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, html, "page one")
	assert.Contains(t, html, "page two")

	// Fragments replay in page order.
	assert.Less(t, strings.Index(html, "page one"), strings.Index(html, "page two"))
}

func TestSaveSingle(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("", dir)

	require.NoError(t, store.SaveSingle("p1", "<html>single</html>"))

	data, err := os.ReadFile(filepath.Join(dir, "p1.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>single</html>", string(data))
}

func TestLoadMissesOtherProducts(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, dir)
	require.NoError(t, store.SaveSingle("p1", "<html>p1</html>"))

	_, ok, err := store.Load("p2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisabledDirectories(t *testing.T) {
	store := NewStore("", "")

	// Saving is a no-op, loading finds nothing.
	require.NoError(t, store.SavePage("p1", 1, "<html></html>"))
	_, ok, err := store.Load("p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
