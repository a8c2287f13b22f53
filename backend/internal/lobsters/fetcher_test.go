package lobsters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/backend/internal/explorer"
)

const secondPage = `[
  {
    "short_id": "abc123",
    "created_at": "2024-05-01T10:00:00.000-05:00",
    "title": "Understanding Go generics",
    "url": "https://example.com/generics",
    "submitter_user": "alice",
    "tags": ["go", "programming"]
  },
  {
    "short_id": "jkl012",
    "created_at": "2024-05-01T07:00:00.000-05:00",
    "title": "Rust in production",
    "url": "https://example.com/rust",
    "submitter_user": "dave",
    "tags": ["rust"]
  }
]`

func liveServer(t *testing.T) *LiveFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/newest.json", "/t/go.json":
			_, _ = w.Write([]byte(newestPage))
		case "/newest/page/2.json":
			_, _ = w.Write([]byte(secondPage))
		case "/newest/page/3.json":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, srv.Client())
	require.NoError(t, err)
	return NewLiveFetcher(client)
}

func TestLiveFetcher_MostRecentArticles(t *testing.T) {
	f := liveServer(t)

	recs, err := f.MostRecentArticles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "abc123", recs[0].ShortID)
	assert.Equal(t, "alice", recs[0].User.Username)
	assert.Equal(t, []explorer.TagRecord{{Name: "go"}, {Name: "programming"}}, recs[0].Tags)

	// Pages are read until the limit is met or the listing runs out. A story
	// that shifted onto the next page is returned once.
	recs, err = f.MostRecentArticles(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "abc123", recs[0].ShortID)
	assert.Equal(t, "def456", recs[1].ShortID)
	assert.Equal(t, "jkl012", recs[2].ShortID)
}

func TestLiveFetcher_ArticlesByTag(t *testing.T) {
	f := liveServer(t)

	recs, err := f.ArticlesByTag(context.Background(), "go", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "abc123", recs[0].ShortID)

	_, err = f.ArticlesByTag(context.Background(), "unknown", 10)
	assert.Error(t, err)
}

func TestLiveFetcher_FeedsController(t *testing.T) {
	f := liveServer(t)
	c := explorer.NewController(f, explorer.Options{MostRecentLimit: 2, ByTagLimit: 5})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := <-c.Start(ctx)
	require.NoError(t, out.Err)
	assert.True(t, out.State.Has("abc123"))
	assert.True(t, out.State.Has("carol"))
	assert.True(t, out.State.Has("databases"))
}
