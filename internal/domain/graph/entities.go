// Package graph defines the dataset-scoped graph entities shared by every
// store, the mode adapter and the orchestration layer.
package graph

import (
	"time"

	"github.com/google/uuid"
)

const (
	// LinkTypeParentChild marks the structural edges followed by recursive deletion.
	LinkTypeParentChild = "parent-child"

	RootNodeLabel    = "Root Node"
	RootNodeType     = "root"
	ChildLabelPrefix = "Enfant de "

	// RootLevel is the level given to the seed node of every new dataset.
	RootLevel = 0
)

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
	DatasetID() string
	Collection() Collection
}

// Node is a graph vertex. Level is an advisory depth hint.
type Node struct {
	ID      string `json:"id" dynamodbav:"id" validate:"required"`
	Label   string `json:"label" dynamodbav:"label"`
	Dataset string `json:"dataset" dynamodbav:"dataset" validate:"required"`
	Level   *int   `json:"level,omitempty" dynamodbav:"level,omitempty"`
	Type    string `json:"type,omitempty" dynamodbav:"type,omitempty"`
}

// Link is a structural edge between two nodes of the same dataset.
type Link struct {
	ID      string `json:"id" dynamodbav:"id" validate:"required"`
	Source  string `json:"source" dynamodbav:"source" validate:"required"`
	Target  string `json:"target" dynamodbav:"target" validate:"required"`
	Dataset string `json:"dataset" dynamodbav:"dataset" validate:"required"`
	Type    string `json:"type,omitempty" dynamodbav:"type,omitempty"`
}

// VisualLink is an annotation edge, independent of the structural links.
type VisualLink struct {
	ID        string         `json:"id" dynamodbav:"id" validate:"required"`
	Source    string         `json:"source" dynamodbav:"source" validate:"required"`
	Target    string         `json:"target" dynamodbav:"target" validate:"required"`
	Dataset   string         `json:"dataset" dynamodbav:"dataset" validate:"required"`
	Type      *string        `json:"type" dynamodbav:"type"`
	Metadata  map[string]any `json:"metadata" dynamodbav:"metadata"`
	CreatedAt time.Time      `json:"created_at" dynamodbav:"created_at"`
}

// Dataset is the partitioning unit every other entity points to.
type Dataset struct {
	ID        string         `json:"id" dynamodbav:"id" validate:"required"`
	Name      string         `json:"name" dynamodbav:"name" validate:"required"`
	CreatedAt time.Time      `json:"created_at" dynamodbav:"created_at"`
	User      string         `json:"user" dynamodbav:"user"`
	Metadata  map[string]any `json:"metadata" dynamodbav:"metadata"`
}

func (n Node) RecordID() string       { return n.ID }
func (n Node) DatasetID() string      { return n.Dataset }
func (n Node) Collection() Collection { return CollectionNodes }

func (l Link) RecordID() string       { return l.ID }
func (l Link) DatasetID() string      { return l.Dataset }
func (l Link) Collection() Collection { return CollectionLinks }

func (v VisualLink) RecordID() string       { return v.ID }
func (v VisualLink) DatasetID() string      { return v.Dataset }
func (v VisualLink) Collection() Collection { return CollectionVisualLinks }

// DatasetID of a dataset row is its own id, so dataset-scoped purges catch it.
func (d Dataset) RecordID() string       { return d.ID }
func (d Dataset) DatasetID() string      { return d.ID }
func (d Dataset) Collection() Collection { return CollectionDatasets }

// NewID returns a client-side random identifier. Ids are never assigned by a
// backend so the same row can be written to both stores.
func NewID() string {
	return uuid.NewString()
}

// NewNode builds a node with a fresh id.
func NewNode(datasetID, label string, level *int) Node {
	return Node{
		ID:      NewID(),
		Label:   label,
		Dataset: datasetID,
		Level:   level,
	}
}

// NewLink builds a link with a fresh id.
func NewLink(datasetID, source, target, linkType string) Link {
	return Link{
		ID:      NewID(),
		Source:  source,
		Target:  target,
		Dataset: datasetID,
		Type:    linkType,
	}
}

// NewVisualLink builds a visual link with a fresh id. An empty linkType is
// stored as null.
func NewVisualLink(datasetID, source, target, linkType string, metadata map[string]any) VisualLink {
	var t *string
	if linkType != "" {
		t = &linkType
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	return VisualLink{
		ID:        NewID(),
		Source:    source,
		Target:    target,
		Dataset:   datasetID,
		Type:      t,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// NewDataset builds a dataset with a fresh id.
func NewDataset(name, user string) Dataset {
	return Dataset{
		ID:        NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		User:      user,
		Metadata:  map[string]any{},
	}
}

// NewRootNode builds the seed node inserted with every new dataset.
func NewRootNode(datasetID string) Node {
	n := NewNode(datasetID, RootNodeLabel, Level(RootLevel))
	n.Type = RootNodeType
	return n
}

// Level returns a pointer to l, for optional level fields.
func Level(l int) *int {
	return &l
}

// NodeLevel returns the node's level, 0 when unset.
func NodeLevel(n Node) int {
	if n.Level == nil {
		return 0
	}
	return *n.Level
}

// TypeOf returns the visual link type or "" when null.
func (v VisualLink) TypeOf() string {
	if v.Type == nil {
		return ""
	}
	return *v.Type
}

// Touches reports whether the edge has nodeID at either end.
func (l Link) Touches(nodeID string) bool {
	return l.Source == nodeID || l.Target == nodeID
}

// Touches reports whether the edge has nodeID at either end.
func (v VisualLink) Touches(nodeID string) bool {
	return v.Source == nodeID || v.Target == nodeID
}
