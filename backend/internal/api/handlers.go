package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsgraph/backend/internal/constants"
	"newsgraph/backend/internal/explorer"
	"newsgraph/backend/internal/metrics"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Handler serves the article queries and the exploration sessions.
type Handler struct {
	articles        explorer.Fetcher
	sessions        *Registry
	metrics         *metrics.Metrics
	mostRecentLimit int
	byTagLimit      int
	logger          *zap.Logger
}

// NewHandler wires the HTTP surface. The limits are the defaults for the
// article endpoints when no limit parameter is given.
func NewHandler(articles explorer.Fetcher, sessions *Registry, m *metrics.Metrics, mostRecentLimit, byTagLimit int) *Handler {
	return &Handler{
		articles:        articles,
		sessions:        sessions,
		metrics:         m,
		mostRecentLimit: mostRecentLimit,
		byTagLimit:      byTagLimit,
		logger:          logger.Named("api"),
	}
}

// Register mounts the routes on router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/articles", h.mostRecent)
		api.GET("/tags/:tag/articles", h.byTag)

		api.POST("/sessions", h.createSession)
		api.GET("/sessions/:id/graph", h.sessionGraph)
		api.GET("/sessions/:id/events", h.sessionEvents)
		api.POST("/sessions/:id/activate", h.activate)
		api.DELETE("/sessions/:id", h.closeSession)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
}

func (h *Handler) mostRecent(c *gin.Context) {
	limit, ok := parseLimit(c, h.mostRecentLimit)
	if !ok {
		return
	}

	records, err := h.articles.MostRecentArticles(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "Failed to fetch most recent articles", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": records})
}

func (h *Handler) byTag(c *gin.Context) {
	limit, ok := parseLimit(c, h.byTagLimit)
	if !ok {
		return
	}

	records, err := h.articles.ArticlesByTag(c.Request.Context(), c.Param("tag"), limit)
	if err != nil {
		h.fail(c, "Failed to fetch articles by tag", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": records})
}

func (h *Handler) createSession(c *gin.Context) {
	session, initial := h.sessions.Create()

	out, ok := awaitOutcome(c.Request.Context(), initial)
	if !ok {
		c.JSON(http.StatusAccepted, sessionResponse(session, nil))
		return
	}
	if out.Err != nil {
		_ = h.sessions.Close(session.ID)
		h.fail(c, "Initial load failed", out.Err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse(session, nil))
}

func (h *Handler) sessionGraph(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "Session lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session, nil))
}

// sessionEvents streams the session graph as server-sent "graph" events: the
// current snapshot first, then every merged graph. The stream ends when the
// client leaves or the session is closed.
func (h *Handler) sessionEvents(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "Session lookup failed", err)
		return
	}

	updates, unsubscribe := session.Controller.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	send := func(g explorer.GraphState) {
		c.SSEvent("graph", explorer.Present(g))
		c.Writer.Flush()
	}

	send(session.Controller.Snapshot())
	for {
		select {
		case g := <-updates:
			send(g)
		case <-session.Controller.Done():
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

type activateRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *Handler) activate(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "Session lookup failed", err)
		return
	}

	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Only nodes the client was shown can be activated.
	node, found := session.Controller.Snapshot().Node(req.ID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not in graph"})
		return
	}

	activation, err := session.Router.Activate(c.Request.Context(), node)
	if err != nil {
		h.fail(c, "Activation failed", err)
		return
	}
	if h.metrics != nil {
		h.metrics.Activated(activation.Action)
	}

	body := gin.H{"action": activation.Action}
	switch activation.Action {
	case explorer.ActionOpen:
		body["url"] = activation.URL
	case explorer.ActionExpand:
		body["tag"] = activation.Tag
		out, ok := awaitOutcome(c.Request.Context(), activation.Pending)
		if !ok {
			// The merge still happens; the client can poll the graph.
			c.JSON(http.StatusAccepted, sessionResponse(session, body))
			return
		}
		if out.Err != nil {
			h.fail(c, "Expansion failed", out.Err)
			return
		}
		body["nodes_added"] = out.NodesAdded
		body["edges_added"] = out.EdgesAdded
	}
	c.JSON(http.StatusOK, sessionResponse(session, body))
}

func (h *Handler) closeSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		h.fail(c, "Session lookup failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":     msg,
		"detail":    err.Error(),
		"retryable": apperrors.IsRetryable(err),
	})
}

func statusFor(err error) int {
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypeSession):
		return http.StatusNotFound
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		return http.StatusGatewayTimeout
	case apperrors.IsErrorType(err, apperrors.ErrorTypeFetch), apperrors.IsErrorType(err, apperrors.ErrorTypeGraph):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func sessionResponse(s *Session, extra gin.H) gin.H {
	status, pending := s.Controller.Status()
	body := gin.H{
		"session_id": s.ID,
		"status":     status.String(),
		"pending":    pending,
		"graph":      explorer.Present(s.Controller.Snapshot()),
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func awaitOutcome(ctx context.Context, pending <-chan explorer.Outcome) (explorer.Outcome, bool) {
	select {
	case out := <-pending:
		return out, true
	case <-ctx.Done():
		return explorer.Outcome{}, false
	}
}

func parseLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > constants.MaxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(constants.MaxListLimit)})
		return 0, false
	}
	return limit, true
}
