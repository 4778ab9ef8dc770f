package graph

// Snapshot is the export/import document of one dataset. Datasets holds every
// known dataset, not only the exported one.
type Snapshot struct {
	Nodes       []Node       `json:"nodes"`
	Links       []Link       `json:"links"`
	VisualLinks []VisualLink `json:"visual_links"`
	Datasets    []Dataset    `json:"datasets"`
}

// GraphData is the combined structural graph of one dataset.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Restamp overwrites the dataset field of every node, link and visual link.
// Dataset rows are left untouched.
func (s *Snapshot) Restamp(datasetID string) {
	for i := range s.Nodes {
		s.Nodes[i].Dataset = datasetID
	}
	for i := range s.Links {
		s.Links[i].Dataset = datasetID
	}
	for i := range s.VisualLinks {
		s.VisualLinks[i].Dataset = datasetID
	}
}

// Len is the number of node, link and visual link rows.
func (s Snapshot) Len() int {
	return len(s.Nodes) + len(s.Links) + len(s.VisualLinks)
}

// LinkTypes returns the distinct non-empty link types in first-seen order.
func LinkTypes(links []Link) []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, l := range links {
		if l.Type == "" {
			continue
		}
		if _, ok := seen[l.Type]; ok {
			continue
		}
		seen[l.Type] = struct{}{}
		types = append(types, l.Type)
	}
	return types
}

// FindNode returns the node with the given id.
func FindNode(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FilterVisualLinks keeps the visual links of the given type. An empty type
// keeps everything.
func FilterVisualLinks(vls []VisualLink, linkType string) []VisualLink {
	if linkType == "" {
		return vls
	}
	out := make([]VisualLink, 0, len(vls))
	for _, v := range vls {
		if v.TypeOf() == linkType {
			out = append(out, v)
		}
	}
	return out
}
