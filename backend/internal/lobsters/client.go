// Package lobsters loads stories from a lobste.rs compatible site into the
// article graph.
package lobsters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsgraph/backend/internal/graph"
	"newsgraph/backend/pkg/logger"
)

// Story is a story as served by the site's JSON listing.
type Story struct {
	ShortID       string          `json:"short_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Title         string          `json:"title"`
	URL           string          `json:"url"`
	Score         int             `json:"score"`
	CommentsURL   string          `json:"comments_url"`
	SubmitterUser json.RawMessage `json:"submitter_user"`
	Tags          []string        `json:"tags"`
}

// submitter covers both listing formats: older sites embed the user object,
// newer ones only the username.
type submitter struct {
	Username      string `json:"username"`
	AvatarURL     string `json:"avatar_url"`
	Karma         int    `json:"karma"`
	About         string `json:"about"`
	InvitedByUser string `json:"invited_by_user"`
}

func (s Story) submitter() (submitter, error) {
	var sub submitter
	if len(s.SubmitterUser) == 0 {
		return sub, fmt.Errorf("story %s has no submitter", s.ShortID)
	}
	if s.SubmitterUser[0] == '"' {
		if err := json.Unmarshal(s.SubmitterUser, &sub.Username); err != nil {
			return sub, err
		}
	} else if err := json.Unmarshal(s.SubmitterUser, &sub); err != nil {
		return sub, err
	}
	if sub.Username == "" {
		return sub, fmt.Errorf("story %s has no submitter", s.ShortID)
	}
	if sub.AvatarURL == "" {
		sub.AvatarURL = "/avatars/" + sub.Username + "-100.png"
	}
	return sub, nil
}

// Client reads story listings.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the site at baseURL.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		logger:     logger.Named("lobsters"),
	}, nil
}

func (c *Client) pagePath(page int) string {
	if page <= 1 {
		return "/newest.json"
	}
	return fmt.Sprintf("/newest/page/%d.json", page)
}

// NewestPage fetches one page of the newest stories and converts them to
// articles. Stories without a submitter are skipped.
func (c *Client) NewestPage(ctx context.Context, page int) ([]graph.Article, error) {
	return c.stories(ctx, c.pagePath(page))
}

// TagPage fetches the newest stories carrying tag.
func (c *Client) TagPage(ctx context.Context, tag string) ([]graph.Article, error) {
	return c.stories(ctx, "/t/"+url.PathEscape(tag)+".json")
}

func (c *Client) stories(ctx context.Context, path string) ([]graph.Article, error) {
	endpoint := c.baseURL.String() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "newsgraph-importer")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, endpoint, strings.TrimSpace(string(body)))
	}

	var stories []Story
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}

	articles := make([]graph.Article, 0, len(stories))
	for _, s := range stories {
		a, err := c.toArticle(s)
		if err != nil {
			c.logger.Warn("Skipping story", zap.String("short_id", s.ShortID), zap.Error(err))
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func (c *Client) toArticle(s Story) (graph.Article, error) {
	if s.ShortID == "" {
		return graph.Article{}, fmt.Errorf("story has no short id")
	}
	sub, err := s.submitter()
	if err != nil {
		return graph.Article{}, err
	}

	link := s.URL
	if link == "" {
		// Text posts link to their discussion.
		link = s.CommentsURL
	}

	return graph.Article{
		ShortID:     s.ShortID,
		URL:         link,
		Title:       s.Title,
		Score:       s.Score,
		CommentsURL: s.CommentsURL,
		Created:     s.CreatedAt,
		Submitter: graph.User{
			Username:  sub.Username,
			Avatar:    c.resolve(sub.AvatarURL),
			Karma:     sub.Karma,
			About:     sub.About,
			InvitedBy: sub.InvitedByUser,
		},
		Tags: s.Tags,
	}, nil
}

func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}
