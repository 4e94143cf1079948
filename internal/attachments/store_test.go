package attachments

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caixaclaro/caixaclaro/internal/shared"
)

func TestStoreSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(strings.NewReader("receipt body"), "nota-fiscal.PDF")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(ref, ".pdf"))

	f, err := store.Open(ref)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "receipt body", string(body))
}

func TestStoreRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"", "../../etc/passwd", "a/b.pdf", ".hidden"} {
		_, err := store.Open(ref)
		require.ErrorIs(t, err, shared.ErrValidation, "ref %q", ref)
	}
}

func TestStoreRemoveIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(strings.NewReader("x"), "r.png")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ref))
	require.NoError(t, store.Remove(ref))

	_, err = store.Open(ref)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
