package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"newsgraph/backend/internal/explorer"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Repository handles all Neo4j database operations on the article graph:
// (:User)-[:SUBMITTED]->(:Article)-[:HAS_TAG]->(:Tag)
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewRepository creates a new graph repository. An empty database name uses
// the server default.
func NewRepository(driver neo4j.DriverWithContext, database string) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		logger:   logger.Named("graph"),
	}
}

// Connect opens a driver and verifies connectivity
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// articleProjection expands the matched, ordered articles in `a` into one row
// per article with its submitter and tag names.
const articleProjection = `
		MATCH (u:User)-[:SUBMITTED]->(a)
		OPTIONAL MATCH (a)-[:HAS_TAG]->(t:Tag)
		WITH a, u, collect(t.name) as tags
		RETURN
			a.short_id as short_id,
			a.url as url,
			a.title as title,
			u.username as username,
			u.avatar as avatar,
			tags
		ORDER BY a.created DESC
	`

// MostRecentArticles returns the newest articles first
func (r *Repository) MostRecentArticles(ctx context.Context, limit int) ([]explorer.ArticleRecord, error) {
	query := `
		MATCH (a:Article)
		WHERE (a)<-[:SUBMITTED]-(:User)
		WITH a ORDER BY a.created DESC LIMIT $limit
	` + articleProjection

	return r.fetchArticles(ctx, "most_recent_articles", query, map[string]interface{}{
		"limit": int64(limit),
	})
}

// ArticlesByTag returns the newest articles carrying the named tag
func (r *Repository) ArticlesByTag(ctx context.Context, tag string, limit int) ([]explorer.ArticleRecord, error) {
	query := `
		MATCH (a:Article)-[:HAS_TAG]->(:Tag {name: $tag})
		WHERE (a)<-[:SUBMITTED]-(:User)
		WITH a ORDER BY a.created DESC LIMIT $limit
	` + articleProjection

	return r.fetchArticles(ctx, "articles_by_tag", query, map[string]interface{}{
		"tag":   tag,
		"limit": int64(limit),
	})
}

func (r *Repository) fetchArticles(ctx context.Context, name, query string, params map[string]interface{}) ([]explorer.ArticleRecord, error) {
	start := time.Now()
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(name, err)
	}

	records := []explorer.ArticleRecord{}
	for result.Next(ctx) {
		records = append(records, articleFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed(name, err)
	}

	r.logger.Debug("Fetched articles",
		zap.String("query", name),
		zap.Int("count", len(records)),
		zap.Duration("took", time.Since(start)),
	)
	return records, nil
}

func articleFromRecord(record *neo4j.Record) explorer.ArticleRecord {
	rec := explorer.ArticleRecord{
		ShortID: getStringFromRecord(record, "short_id"),
		URL:     getStringFromRecord(record, "url"),
		Title:   getStringFromRecord(record, "title"),
		User: explorer.UserRecord{
			Username: getStringFromRecord(record, "username"),
			Avatar:   getStringFromRecord(record, "avatar"),
		},
	}
	for _, name := range getStringSliceFromRecord(record, "tags") {
		rec.Tags = append(rec.Tags, explorer.TagRecord{Name: name})
	}
	return rec
}

// CountArticles returns the number of stored articles
func (r *Repository) CountArticles(ctx context.Context) (int64, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, "MATCH (a:Article) RETURN count(a) as total", nil)
	if err != nil {
		return 0, apperrors.NewGraphQueryFailed("count_articles", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, apperrors.NewGraphQueryFailed("count_articles", err)
	}
	total, _ := record.Get("total")
	if n, ok := total.(int64); ok {
		return n, nil
	}
	return 0, fmt.Errorf("unexpected count type %T", total)
}
