package lobsters

import (
	"context"

	"newsgraph/backend/internal/explorer"
	"newsgraph/backend/internal/graph"
)

// LiveFetcher serves exploration requests straight from the site, without a
// local graph database. Listings come back newest first already.
type LiveFetcher struct {
	client *Client
}

func NewLiveFetcher(client *Client) *LiveFetcher {
	return &LiveFetcher{client: client}
}

// MostRecentArticles reads listing pages until limit distinct articles are
// collected or a page comes back empty.
func (f *LiveFetcher) MostRecentArticles(ctx context.Context, limit int) ([]explorer.ArticleRecord, error) {
	var pages [][]graph.Article
	var collected []graph.Article
	for page := 1; len(collected) < limit; page++ {
		articles, err := f.client.NewestPage(ctx, page)
		if err != nil {
			return nil, err
		}
		if len(articles) == 0 {
			break
		}
		pages = append(pages, articles)
		collected = dedupe(pages)
	}
	return records(collected, limit), nil
}

// ArticlesByTag returns the newest articles of the tag's first listing page.
func (f *LiveFetcher) ArticlesByTag(ctx context.Context, tag string, limit int) ([]explorer.ArticleRecord, error) {
	articles, err := f.client.TagPage(ctx, tag)
	if err != nil {
		return nil, err
	}
	return records(articles, limit), nil
}

func records(articles []graph.Article, limit int) []explorer.ArticleRecord {
	if len(articles) > limit {
		articles = articles[:limit]
	}
	out := make([]explorer.ArticleRecord, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Record())
	}
	return out
}
