package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "newsgraph/backend/pkg/errors"
)

// ============================================================================
// Article Write Operations
// ============================================================================

// UpsertArticles merges articles, their submitters and tags into the graph.
// Existing nodes are updated in place, relationships are created once.
func (r *Repository) UpsertArticles(ctx context.Context, articles []Article) error {
	if len(articles) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(articles))
	for _, a := range articles {
		if a.Submitter.Username == "" {
			return ErrNoSubmitter{ShortID: a.ShortID}
		}
		rows = append(rows, articleParams(a))
	}

	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		UNWIND $articles as row
		MERGE (a:Article {short_id: row.short_id})
		SET a.url = row.url,
		    a.title = row.title,
		    a.score = row.score,
		    a.comments = row.comments,
		    a.created = datetime(row.created)
		MERGE (u:User {username: row.username})
		SET u.avatar = row.avatar
		MERGE (u)-[:SUBMITTED]->(a)
		WITH a, u, row
		FOREACH (inviter IN CASE WHEN row.invited_by = '' THEN [] ELSE [row.invited_by] END |
			MERGE (i:User {username: inviter})
			MERGE (u)-[:INVITED_BY]->(i)
		)
		WITH a, row
		UNWIND row.tags as tagName
		MERGE (t:Tag {name: tagName})
		MERGE (a)-[:HAS_TAG]->(t)
	`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, map[string]interface{}{"articles": rows})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("upsert_articles", err)
	}

	r.logger.Info("Articles upserted", zap.Int("count", len(articles)))
	return nil
}

func articleParams(a Article) map[string]interface{} {
	created := a.Created
	if created.IsZero() {
		created = time.Now()
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"short_id":   a.ShortID,
		"url":        a.URL,
		"title":      a.Title,
		"score":      int64(a.Score),
		"comments":   a.CommentsURL,
		"created":    created.UTC().Format(time.RFC3339),
		"username":   a.Submitter.Username,
		"avatar":     a.Submitter.Avatar,
		"invited_by": a.Submitter.InvitedBy,
		"tags":       tags,
	}
}

// EnsureSchema creates the uniqueness constraints and indexes the article
// queries rely on. Statements that fail are logged and skipped.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		"CREATE CONSTRAINT article_short_id_unique IF NOT EXISTS FOR (a:Article) REQUIRE a.short_id IS UNIQUE",
		"CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE",
		"CREATE CONSTRAINT tag_name_unique IF NOT EXISTS FOR (t:Tag) REQUIRE t.name IS UNIQUE",
		"CREATE INDEX article_created IF NOT EXISTS FOR (a:Article) ON (a.created)",
	}

	failed := 0
	var lastErr error
	for _, stmt := range statements {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			failed++
			lastErr = err
			r.logger.Warn("Schema statement failed", zap.String("statement", stmt), zap.Error(err))
		}
	}
	if failed == len(statements) {
		return apperrors.NewGraphQueryFailed("ensure_schema", lastErr)
	}
	return nil
}

// DeleteAll removes every article, user and tag together with their
// relationships. Other labels in the database are left alone.
func (r *Repository) DeleteAll(ctx context.Context) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
		MATCH (n)
		WHERE n:Article OR n:User OR n:Tag
		DETACH DELETE n
	`
	if _, err := session.Run(ctx, query, nil); err != nil {
		return apperrors.NewGraphQueryFailed("delete_all", err)
	}
	r.logger.Info("Article graph deleted")
	return nil
}
