package lobsters

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsgraph/backend/internal/graph"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Store receives imported articles. *graph.Repository satisfies it.
type Store interface {
	UpsertArticles(ctx context.Context, articles []graph.Article) error
}

// Source produces pages of articles. *Client satisfies it.
type Source interface {
	NewestPage(ctx context.Context, page int) ([]graph.Article, error)
}

// Summary reports what an import run did.
type Summary struct {
	Pages    int
	Articles int
	Tags     int
	Users    int
	Took     time.Duration
}

// Importer copies the newest stories from a Source into a Store.
type Importer struct {
	source      Source
	store       Store
	sourceName  string
	concurrency int
	logger      *zap.Logger
}

func NewImporter(source Source, store Store, sourceName string, concurrency int) *Importer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		source:      source,
		store:       store,
		sourceName:  sourceName,
		concurrency: concurrency,
		logger:      logger.Named("importer"),
	}
}

// Run fetches pages 1..pages concurrently, drops stories repeated across
// pages, and upserts the rest in page order. Any page failure aborts the run
// before anything is written.
func (im *Importer) Run(ctx context.Context, pages int) (Summary, error) {
	start := time.Now()

	// Concurrent fetch using errgroup with context
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)

	results := make([][]graph.Article, pages)
	for i := 0; i < pages; i++ {
		page := i + 1
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			articles, err := im.source.NewestPage(gctx, page)
			if err != nil {
				return apperrors.NewImportFailed(im.sourceName, page, err)
			}
			results[page-1] = articles
			im.logger.Debug("Page fetched", zap.Int("page", page), zap.Int("articles", len(articles)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	articles := dedupe(results)
	if err := im.store.UpsertArticles(ctx, articles); err != nil {
		return Summary{}, err
	}

	summary := summarize(articles)
	summary.Pages = pages
	summary.Took = time.Since(start)

	im.logger.Info("Import finished",
		zap.String("source", im.sourceName),
		zap.Int("pages", summary.Pages),
		zap.Int("articles", summary.Articles),
		zap.Int("users", summary.Users),
		zap.Int("tags", summary.Tags),
		zap.Duration("took", summary.Took),
	)
	return summary, nil
}

// dedupe flattens pages keeping the first occurrence of each short id. Pages
// shift while they are read, so a story can show up twice.
func dedupe(pages [][]graph.Article) []graph.Article {
	seen := make(map[string]bool)
	var out []graph.Article
	for _, page := range pages {
		for _, a := range page {
			if seen[a.ShortID] {
				continue
			}
			seen[a.ShortID] = true
			out = append(out, a)
		}
	}
	return out
}

func summarize(articles []graph.Article) Summary {
	users := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, a := range articles {
		users[a.Submitter.Username] = struct{}{}
		for _, t := range a.Tags {
			tags[t] = struct{}{}
		}
	}
	return Summary{Articles: len(articles), Users: len(users), Tags: len(tags)}
}
