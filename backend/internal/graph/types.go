package graph

import (
	"time"

	"newsgraph/backend/internal/explorer"
)

// Article is a stored story with its submitter and tag names.
type Article struct {
	ShortID     string    `json:"short_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Score       int       `json:"score"`
	CommentsURL string    `json:"comments_url,omitempty"`
	Created     time.Time `json:"created"`
	Submitter   User      `json:"submitter"`
	Tags        []string  `json:"tags"`
}

// User is a story submitter.
type User struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	Karma     int    `json:"karma,omitempty"`
	About     string `json:"about,omitempty"`
	InvitedBy string `json:"invited_by,omitempty"`
}

// Record converts the article into the raw shape the explorer normalizes.
func (a Article) Record() explorer.ArticleRecord {
	rec := explorer.ArticleRecord{
		ShortID: a.ShortID,
		URL:     a.URL,
		Title:   a.Title,
		User: explorer.UserRecord{
			Username: a.Submitter.Username,
			Avatar:   a.Submitter.Avatar,
		},
		Tags: make([]explorer.TagRecord, 0, len(a.Tags)),
	}
	for _, name := range a.Tags {
		rec.Tags = append(rec.Tags, explorer.TagRecord{Name: name})
	}
	return rec
}

// ErrNoSubmitter is returned by UpsertArticles for an article without a username.
type ErrNoSubmitter struct {
	ShortID string
}

func (e ErrNoSubmitter) Error() string {
	return "article has no submitter: " + e.ShortID
}
