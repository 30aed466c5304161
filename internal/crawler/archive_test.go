package crawler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchivePath(t *testing.T) {
	t.Parallel()

	at := time.Date(2022, 11, 17, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	got := ArchivePath("/raw/", "https://www.bbc.co.uk/news/uk-politics-1?x=1", at)

	assert.True(t, strings.HasPrefix(got, "raw/2022-11-18/www.bbc.co.uk_news_uk-politics-1_"), got)
	assert.True(t, strings.HasSuffix(got, ".html"))
	hash := strings.TrimSuffix(got[strings.LastIndex(got, "_")+1:], ".html")
	assert.Len(t, hash, 16)
}

func TestArchivePathNoPrefixAndRoot(t *testing.T) {
	t.Parallel()

	at := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
	got := ArchivePath("", "https://example.com/", at)
	assert.True(t, strings.HasPrefix(got, "2022-01-02/example.com_root_"), got)
}

func TestArchivePathDistinctQueries(t *testing.T) {
	t.Parallel()

	at := time.Now()
	a := ArchivePath("p", "https://example.com/a?page=1", at)
	b := ArchivePath("p", "https://example.com/a?page=2", at)
	assert.NotEqual(t, a, b)
}
