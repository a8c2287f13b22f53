package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func article(shortID, username string, tags ...string) ArticleRecord {
	rec := ArticleRecord{
		ShortID: shortID,
		URL:     "https://example.com/" + shortID,
		Title:   "Title of " + shortID,
		User:    UserRecord{Username: username, Avatar: "/avatars/" + username + ".png"},
	}
	for _, t := range tags {
		rec.Tags = append(rec.Tags, TagRecord{Name: t})
	}
	return rec
}

func TestNormalize_SingleArticle(t *testing.T) {
	candidate := Normalize([]ArticleRecord{article("a1", "u1", "t1", "t2")})

	assert.Equal(t, []Node{
		{ID: "a1", Kind: KindArticle, URL: "https://example.com/a1", Title: "Title of a1"},
		{ID: "u1", Kind: KindUser, Avatar: "/avatars/u1.png"},
		{ID: "t1", Kind: KindTag},
		{ID: "t2", Kind: KindTag},
	}, candidate.Nodes)
	assert.Equal(t, []Edge{
		{Source: "u1", Target: "a1"},
		{Source: "a1", Target: "t1"},
		{Source: "a1", Target: "t2"},
	}, candidate.Edges)
}

func TestNormalize_KeepsRepeatedNodes(t *testing.T) {
	candidate := Normalize([]ArticleRecord{
		article("a1", "u1", "go"),
		article("a2", "u1", "go"),
		article("a3", "u1"),
	})

	users := 0
	for _, n := range candidate.Nodes {
		if n.Kind == KindUser {
			assert.Equal(t, "u1", n.ID)
			users++
		}
	}
	assert.Equal(t, 3, users, "one user node per article, dedup happens at merge")
	assert.Len(t, candidate.Nodes, 8)
	assert.Len(t, candidate.Edges, 5)
}

func TestNormalize_Empty(t *testing.T) {
	tests := []struct {
		name    string
		records []ArticleRecord
	}{
		{name: "nil result", records: nil},
		{name: "no articles for tag", records: []ArticleRecord{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := Normalize(tt.records)
			assert.Empty(t, candidate.Nodes)
			assert.Empty(t, candidate.Edges)
			assert.NoError(t, candidate.Validate(EmptyGraph()))
		})
	}
}

func TestNormalize_OutputIsValid(t *testing.T) {
	candidate := Normalize([]ArticleRecord{
		article("a1", "u1", "t1", "t2"),
		article("a2", "u2"),
	})
	assert.NoError(t, candidate.Validate(EmptyGraph()))
}
