// Package explorer accumulates article, user and tag subgraphs fetched from the
// article source into a single growing graph, and routes node activations on
// the rendered graph into further fetches.
package explorer

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of node variants.
type Kind int

const (
	KindArticle Kind = iota + 1
	KindUser
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindArticle:
		return "Article"
	case KindUser:
		return "User"
	case KindTag:
		return "Tag"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared variants.
func (k Kind) Valid() bool {
	switch k {
	case KindArticle, KindUser, KindTag:
		return true
	}
	return false
}

// ParseKind maps a type name ("Article", "User", "Tag") to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "Article":
		return KindArticle, nil
	case "User":
		return KindUser, nil
	case "Tag":
		return KindTag, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", name)
}

func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseKind(name)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Node is a displayable vertex. URL and Title are only set on articles,
// Avatar only on users.
type Node struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	URL    string `json:"url,omitempty"`
	Title  string `json:"title,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Edge is a directed relationship between two node ids: user->article for a
// submission, article->tag for a tagging.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// PartialGraph is the candidate graph derived from a single fetch. It may hold
// the same node more than once.
type PartialGraph struct {
	Nodes []Node
	Edges []Edge
}

// GraphState is the accumulated view of a session. Node ids are unique, edges
// may repeat. A GraphState is never modified after it is built; Merge returns a
// new one.
type GraphState struct {
	nodes []Node
	edges []Edge
	index map[string]int
}

// EmptyGraph returns the state a session starts from.
func EmptyGraph() GraphState {
	return GraphState{index: map[string]int{}}
}

// Nodes returns a copy of the node sequence in insertion order.
func (g GraphState) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of the edge sequence in insertion order.
func (g GraphState) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node looks up a node by id.
func (g GraphState) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Has reports whether a node with the given id is present.
func (g GraphState) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

func (g GraphState) NodeCount() int { return len(g.nodes) }

func (g GraphState) EdgeCount() int { return len(g.edges) }

// ArticleRecord is one row of a raw fetch result: an article with its
// submitter and tags embedded.
type ArticleRecord struct {
	ShortID string      `json:"short_id"`
	URL     string      `json:"url"`
	Title   string      `json:"title"`
	User    UserRecord  `json:"user"`
	Tags    []TagRecord `json:"tags"`
}

type UserRecord struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type TagRecord struct {
	Name string `json:"name"`
}
