package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

func TestRecordStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecordStore()
	record := crawler.ArticleRecord{URL: "https://example.com/a", Headline: "A"}

	_, err := store.Exists(ctx, record.URL)
	require.Error(t, err, "closed store should refuse lookups")
	require.Error(t, store.Insert(ctx, record), "closed store should refuse inserts")

	require.NoError(t, store.Open(ctx))
	found, err := store.Exists(ctx, record.URL)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.Insert(ctx, record))
	err = store.Insert(ctx, record)
	require.ErrorIs(t, err, crawler.ErrDuplicateURL)

	found, err = store.Exists(ctx, record.URL)
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, store.Close(ctx))
	got, ok := store.Get(record.URL)
	require.True(t, ok)
	require.Equal(t, "A", got.Headline)
	require.Len(t, store.Records(), 1)

	opens, closes := store.Lifecycle()
	require.Equal(t, 1, opens)
	require.Equal(t, 1, closes)
}

func TestRecordStoreSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewRecordStore()
	store.Seed(crawler.ArticleRecord{URL: "https://example.com/old"})
	require.NoError(t, store.Open(ctx))

	found, err := store.Exists(ctx, "https://example.com/old")
	require.NoError(t, err)
	require.True(t, found)
	require.ErrorIs(t, store.Insert(ctx, crawler.ArticleRecord{URL: "https://example.com/old"}), crawler.ErrDuplicateURL)
}
