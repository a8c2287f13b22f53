package explorer

// Normalize turns a raw fetch result into a candidate partial graph. For each
// article it emits the article node, the submitter node, the submission edge,
// and one tag node plus tagging edge per tag. Nothing is deduplicated here.
func Normalize(records []ArticleRecord) PartialGraph {
	if len(records) == 0 {
		return PartialGraph{}
	}

	candidate := PartialGraph{
		Nodes: make([]Node, 0, len(records)*3),
		Edges: make([]Edge, 0, len(records)*2),
	}

	for _, a := range records {
		candidate.Nodes = append(candidate.Nodes,
			Node{ID: a.ShortID, Kind: KindArticle, URL: a.URL, Title: a.Title},
			Node{ID: a.User.Username, Kind: KindUser, Avatar: a.User.Avatar},
		)
		candidate.Edges = append(candidate.Edges, Edge{Source: a.User.Username, Target: a.ShortID})

		for _, t := range a.Tags {
			candidate.Nodes = append(candidate.Nodes, Node{ID: t.Name, Kind: KindTag})
			candidate.Edges = append(candidate.Edges, Edge{Source: a.ShortID, Target: t.Name})
		}
	}

	return candidate
}
