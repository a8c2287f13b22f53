package explorer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"newsgraph/backend/pkg/logger"
)

// Expander issues by-tag requests. *Controller satisfies it.
type Expander interface {
	ExpandTag(tag string) <-chan Outcome
}

// Navigator opens an article's resource outside the graph.
type Navigator interface {
	Open(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// Action is what an activation resulted in.
type Action string

const (
	ActionExpand Action = "expand"
	ActionOpen   Action = "open"
	ActionIgnore Action = "ignore"
)

// Activation describes the effect of activating a node. Pending is set for
// ActionExpand and delivers the merge outcome.
type Activation struct {
	Action  Action
	Tag     string
	URL     string
	Pending <-chan Outcome
}

// Router dispatches node activations from the rendering surface.
type Router struct {
	expander  Expander
	navigator Navigator
	logger    *zap.Logger
}

func NewRouter(expander Expander, navigator Navigator) *Router {
	return &Router{
		expander:  expander,
		navigator: navigator,
		logger:    logger.Named("router"),
	}
}

// Activate routes an activated node: tags expand the graph, articles open
// their URL, users do nothing.
func (r *Router) Activate(ctx context.Context, node Node) (Activation, error) {
	switch node.Kind {
	case KindTag:
		r.logger.Debug("Expanding tag", zap.String("tag", node.ID))
		return Activation{
			Action:  ActionExpand,
			Tag:     node.ID,
			Pending: r.expander.ExpandTag(node.ID),
		}, nil
	case KindArticle:
		if err := r.navigator.Open(ctx, node.URL); err != nil {
			return Activation{}, fmt.Errorf("failed to open %s: %w", node.URL, err)
		}
		return Activation{Action: ActionOpen, URL: node.URL}, nil
	case KindUser:
		return Activation{Action: ActionIgnore}, nil
	default:
		panic(fmt.Sprintf("explorer: cannot route %s", node.Kind))
	}
}
