package lobsters

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/backend/internal/graph"
	apperrors "newsgraph/backend/pkg/errors"
)

type mockSource struct {
	pages map[int][]graph.Article
	fail  map[int]error
}

func (m *mockSource) NewestPage(ctx context.Context, page int) ([]graph.Article, error) {
	if err := m.fail[page]; err != nil {
		return nil, err
	}
	return m.pages[page], nil
}

type mockStore struct {
	mu       sync.Mutex
	upserted [][]graph.Article
	err      error
}

func (m *mockStore) UpsertArticles(ctx context.Context, articles []graph.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, articles)
	return nil
}

func story(shortID, user string, tags ...string) graph.Article {
	return graph.Article{ShortID: shortID, Submitter: graph.User{Username: user}, Tags: tags}
}

func TestImporter_Run(t *testing.T) {
	source := &mockSource{pages: map[int][]graph.Article{
		1: {story("a", "alice", "go"), story("b", "bob", "rust")},
		2: {story("b", "bob", "rust"), story("c", "alice", "go", "web")},
		3: {story("d", "carol")},
	}}
	store := &mockStore{}

	summary, err := NewImporter(source, store, "test", 2).Run(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, store.upserted, 1)
	var ids []string
	for _, a := range store.upserted[0] {
		ids = append(ids, a.ShortID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, 3, summary.Pages)
	assert.Equal(t, 4, summary.Articles)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 3, summary.Tags)
}

func TestImporter_PageFailureWritesNothing(t *testing.T) {
	source := &mockSource{
		pages: map[int][]graph.Article{1: {story("a", "alice")}},
		fail:  map[int]error{2: errors.New("timeout")},
	}
	store := &mockStore{}

	_, err := NewImporter(source, store, "test", 1).Run(context.Background(), 2)

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeImport))
	var importErr *apperrors.ErrImportFailed
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, 2, importErr.Page)
	assert.Empty(t, store.upserted)
}

func TestImporter_StoreError(t *testing.T) {
	source := &mockSource{pages: map[int][]graph.Article{1: {story("a", "alice")}}}
	store := &mockStore{err: errors.New("constraint violation")}

	_, err := NewImporter(source, store, "test", 0).Run(context.Background(), 1)

	assert.Error(t, err)
}
