package explorer

import "fmt"

// Shape tells the rendering surface how to draw a node.
type Shape string

const (
	// ShapeLabel draws the label on a translucent box
	ShapeLabel Shape = "label"
	// ShapeImage draws the avatar image
	ShapeImage Shape = "image"
)

// ViewNode is a node as handed to the rendering surface.
type ViewNode struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Label  string `json:"label"`
	Shape  Shape  `json:"shape"`
	URL    string `json:"url,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// View is the render form of a GraphState: force-graph style nodes and links.
type View struct {
	Nodes []ViewNode `json:"nodes"`
	Links []Edge     `json:"links"`
}

// Present builds the render form of g.
func Present(g GraphState) View {
	view := View{
		Nodes: make([]ViewNode, 0, len(g.nodes)),
		Links: g.Edges(),
	}
	for _, n := range g.nodes {
		view.Nodes = append(view.Nodes, Appearance(n))
	}
	return view
}

// Appearance decides how a single node is drawn.
func Appearance(n Node) ViewNode {
	v := ViewNode{ID: n.ID, Kind: n.Kind, Label: n.ID}
	switch n.Kind {
	case KindArticle:
		if n.Title != "" {
			v.Label = n.Title
		}
		v.Shape = ShapeLabel
		v.URL = n.URL
	case KindTag:
		v.Shape = ShapeLabel
	case KindUser:
		v.Shape = ShapeImage
		v.Avatar = n.Avatar
	default:
		panic(fmt.Sprintf("explorer: no appearance for %s", n.Kind))
	}
	return v
}
