package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"newsgraph/backend/internal/constants"
	apperrors "newsgraph/backend/pkg/errors"
	"newsgraph/backend/pkg/logger"
)

// Fetcher is the upstream article source. Both queries return articles newest
// first with their submitter and tags embedded.
type Fetcher interface {
	MostRecentArticles(ctx context.Context, limit int) ([]ArticleRecord, error)
	ArticlesByTag(ctx context.Context, tag string, limit int) ([]ArticleRecord, error)
}

// Observer is notified of every resolved request. Calls happen on the
// controller's merge goroutine and must not block.
type Observer interface {
	Resolved(req Request, err error)
	Merged(req Request, nodesAdded, edgesAdded int)
}

// RequestKind distinguishes the two fetch shapes.
type RequestKind int

const (
	RequestMostRecent RequestKind = iota + 1
	RequestByTag
)

func (k RequestKind) String() string {
	switch k {
	case RequestMostRecent:
		return "most_recent"
	case RequestByTag:
		return "by_tag"
	}
	return "unknown"
}

// Request identifies one issued fetch. Seq is unique per controller.
type Request struct {
	Seq  uint64
	Kind RequestKind
	Tag  string
}

func (r Request) String() string {
	if r.Kind == RequestByTag {
		return fmt.Sprintf("#%d %s(%s)", r.Seq, r.Kind, r.Tag)
	}
	return fmt.Sprintf("#%d %s", r.Seq, r.Kind)
}

// Outcome reports how a request ended. State is the graph right after the
// request was applied, or the unchanged graph when Err is set.
type Outcome struct {
	Request    Request
	State      GraphState
	NodesAdded int
	EdgesAdded int
	Err        error
}

// Status is the controller's coarse loading state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
)

func (s Status) String() string {
	if s == StatusLoading {
		return "loading"
	}
	return "idle"
}

// Options configures a Controller.
type Options struct {
	MostRecentLimit int
	ByTagLimit      int
	// FetchTimeout bounds each fetch; zero leaves it to the fetcher.
	FetchTimeout time.Duration
	// Strict panics on malformed candidate graphs instead of dropping them.
	// The panic happens on the merge goroutine and ends the process.
	Strict   bool
	Observer Observer
}

type resolution struct {
	req     Request
	records []ArticleRecord
	err     error
	reply   chan Outcome
}

// Controller drives the fetches of one exploration session and owns its graph.
//
// Requests may overlap freely. Their results are merged one at a time on a
// single goroutine, in the order they resolve, each against the state left by
// the previous merge. Readers get immutable snapshots.
type Controller struct {
	fetcher Fetcher
	opts    Options
	logger  *zap.Logger

	state   atomic.Pointer[GraphState]
	pending atomic.Int64
	seq     atomic.Uint64

	startOnce sync.Once
	ctx       atomic.Pointer[context.Context]
	resolved  chan resolution
	done      chan struct{}

	mu          sync.Mutex
	subscribers map[int]chan GraphState
	nextSub     int
}

// NewController creates a controller with an empty graph. Nothing is fetched
// until Start is called.
func NewController(fetcher Fetcher, opts Options) *Controller {
	if opts.MostRecentLimit < 1 {
		opts.MostRecentLimit = constants.DefaultMostRecentLimit
	}
	if opts.ByTagLimit < 1 {
		opts.ByTagLimit = constants.DefaultByTagLimit
	}
	c := &Controller{
		fetcher:     fetcher,
		opts:        opts,
		logger:      logger.Named("explorer"),
		resolved:    make(chan resolution),
		done:        make(chan struct{}),
		subscribers: make(map[int]chan GraphState),
	}
	empty := EmptyGraph()
	c.state.Store(&empty)
	return c
}

// Start launches the merge loop and issues the most-recent request. The
// session lives until ctx is cancelled. Calls after the first return nil.
func (c *Controller) Start(ctx context.Context) <-chan Outcome {
	var initial <-chan Outcome
	c.startOnce.Do(func() {
		c.ctx.Store(&ctx)
		go c.run(ctx)
		initial = c.issue(RequestMostRecent, "")
	})
	return initial
}

// ExpandTag issues a by-tag request. The returned channel delivers exactly one
// Outcome once the result has been merged or has failed. Start must have been
// called first.
func (c *Controller) ExpandTag(tag string) <-chan Outcome {
	return c.issue(RequestByTag, tag)
}

// Snapshot returns the current graph.
func (c *Controller) Snapshot() GraphState {
	return *c.state.Load()
}

// Status reports whether any request is outstanding, and how many.
func (c *Controller) Status() (Status, int) {
	n := int(c.pending.Load())
	if n == 0 {
		return StatusIdle, 0
	}
	return StatusLoading, n
}

// Done is closed once the merge loop has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Subscribe returns a channel that receives each newly published graph. Only
// the latest unread graph is kept. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan GraphState, func()) {
	ch := make(chan GraphState, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) issue(kind RequestKind, tag string) <-chan Outcome {
	req := Request{Seq: c.seq.Add(1), Kind: kind, Tag: tag}
	reply := make(chan Outcome, 1)

	started := c.ctx.Load()
	if started == nil {
		reply <- Outcome{Request: req, State: c.Snapshot(), Err: apperrors.NewFetchFailed(req.String(), fmt.Errorf("controller not started"))}
		return reply
	}

	c.pending.Add(1)
	c.logger.Debug("Issuing request", zap.Stringer("request", req))

	go func() {
		fctx := *started
		if c.opts.FetchTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(fctx, c.opts.FetchTimeout)
			defer cancel()
		}

		var records []ArticleRecord
		var err error
		switch kind {
		case RequestMostRecent:
			records, err = c.fetcher.MostRecentArticles(fctx, c.opts.MostRecentLimit)
		case RequestByTag:
			records, err = c.fetcher.ArticlesByTag(fctx, tag, c.opts.ByTagLimit)
		}

		select {
		case c.resolved <- resolution{req: req, records: records, err: err, reply: reply}:
		case <-c.done:
			c.pending.Add(-1)
			reply <- Outcome{Request: req, State: c.Snapshot(), Err: apperrors.NewFetchFailed(req.String(), context.Canceled)}
		}
	}()

	return reply
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Merge loop stopped", zap.Error(ctx.Err()))
			return
		case r := <-c.resolved:
			r.reply <- c.apply(r)
		}
	}
}

// apply runs on the merge goroutine only.
func (c *Controller) apply(r resolution) Outcome {
	defer c.pending.Add(-1)

	prev := c.Snapshot()
	out := Outcome{Request: r.req, State: prev}

	if r.err != nil {
		cause := r.err
		if errors.Is(cause, context.DeadlineExceeded) {
			timeout := apperrors.NewContextTimeout(r.req.String(), c.opts.FetchTimeout)
			timeout.Err = r.err
			cause = timeout
		}
		out.Err = apperrors.NewFetchFailed(r.req.String(), cause)
		c.logger.Warn("Fetch failed, graph unchanged",
			zap.Stringer("request", r.req),
			zap.Error(r.err),
		)
		c.observeResolved(r.req, out.Err)
		return out
	}
	c.observeResolved(r.req, nil)

	candidate := Normalize(r.records)
	if err := candidate.Validate(prev); err != nil {
		if c.opts.Strict {
			panic(err)
		}
		c.logger.Error("Dropping malformed candidate graph",
			zap.Stringer("request", r.req),
			zap.Error(err),
		)
		out.Err = err
		return out
	}

	next := Merge(prev, candidate)
	c.state.Store(&next)

	out.State = next
	out.NodesAdded = next.NodeCount() - prev.NodeCount()
	out.EdgesAdded = next.EdgeCount() - prev.EdgeCount()

	c.logger.Debug("Merged fetch result",
		zap.Stringer("request", r.req),
		zap.Int("articles", len(r.records)),
		zap.Int("nodes_added", out.NodesAdded),
		zap.Int("edges_added", out.EdgesAdded),
		zap.Int("nodes", next.NodeCount()),
		zap.Int("edges", next.EdgeCount()),
	)
	if c.opts.Observer != nil {
		c.opts.Observer.Merged(r.req, out.NodesAdded, out.EdgesAdded)
	}
	c.publish(next)
	return out
}

func (c *Controller) observeResolved(req Request, err error) {
	if c.opts.Observer != nil {
		c.opts.Observer.Resolved(req, err)
	}
}

func (c *Controller) publish(g GraphState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		// Replace an unread graph with the newer one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- g:
		default:
		}
	}
}
