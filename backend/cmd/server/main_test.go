package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"newsgraph/backend/internal/api"
	"newsgraph/backend/internal/explorer"
	"newsgraph/backend/internal/lobsters"
	"newsgraph/backend/internal/metrics"
	"newsgraph/backend/pkg/config"
)

type staticArticles struct{}

func (staticArticles) MostRecentArticles(ctx context.Context, limit int) ([]explorer.ArticleRecord, error) {
	return []explorer.ArticleRecord{{
		ShortID: "a1",
		URL:     "https://example.com/a1",
		User:    explorer.UserRecord{Username: "u1"},
		Tags:    []explorer.TagRecord{{Name: "go"}},
	}}, nil
}

func (staticArticles) ArticlesByTag(ctx context.Context, tag string, limit int) ([]explorer.ArticleRecord, error) {
	return nil, nil
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Env: "test", AllowedOrigin: "*"}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sessions := api.NewRegistry(staticArticles{}, explorer.Options{}, time.Minute, m)
	t.Cleanup(sessions.CloseAll)

	return newRouter(cfg, zap.NewNop(), api.NewHandler(staticArticles{}, sessions, m, 30, 10), reg)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/sessions", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `newsgraph_fetches_total{kind="most_recent",result="ok"} 1`), body)
	assert.Contains(t, body, "newsgraph_active_sessions 1")
}

func TestActivateEndpoint_InvalidRequest(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/sessions", nil)
	router.ServeHTTP(w, req)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Test missing fields
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/sessions/"+created.SessionID+"/activate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenSource_Lobsters(t *testing.T) {
	cfg := &config.Config{ArticleSource: config.SourceLobsters, LobstersBaseURL: "https://lobste.rs"}

	fetcher, closeSource, err := openSource(cfg)
	require.NoError(t, err)
	defer closeSource()

	_, ok := fetcher.(*lobsters.LiveFetcher)
	assert.True(t, ok)
}
