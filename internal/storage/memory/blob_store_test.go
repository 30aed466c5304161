package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "pages/2024-01-01/page.html", "text/html", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "memory://pages/2024-01-01/page.html", uri)

	payload[0] = 'C'
	stored, ok := store.Object("pages/2024-01-01/page.html")
	require.True(t, ok)
	require.Equal(t, "content", string(stored))

	stored[0] = 'X'
	again, _ := store.Object("pages/2024-01-01/page.html")
	require.Equal(t, "content", string(again))
	require.Equal(t, []string{"pages/2024-01-01/page.html"}, store.Paths())
}
