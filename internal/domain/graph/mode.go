package graph

import (
	"fmt"
	"strings"

	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// DbMode selects which backend(s) an operation targets.
type DbMode string

const (
	ModeLocal  DbMode = "local"
	ModeRemote DbMode = "remote"
	ModeSync   DbMode = "sync"
)

// Modes lists every supported mode.
var Modes = []DbMode{ModeLocal, ModeRemote, ModeSync}

// ParseDbMode parses a mode name, case-insensitively.
func ParseDbMode(s string) (DbMode, error) {
	m := DbMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", appErrors.NewValidationError(fmt.Sprintf("unknown db mode %q", s)).
			WithCode(appErrors.CodeUnknownMode)
	}
	return m, nil
}

// Valid reports whether m is one of the supported modes.
func (m DbMode) Valid() bool {
	switch m {
	case ModeLocal, ModeRemote, ModeSync:
		return true
	}
	return false
}

func (m DbMode) String() string { return string(m) }

// Collection names one of the four persisted collections. The names double as
// SQLite and remote table names.
type Collection string

const (
	CollectionNodes       Collection = "nodes"
	CollectionLinks       Collection = "links"
	CollectionVisualLinks Collection = "visual_links"
	CollectionDatasets    Collection = "datasets"
)

// Collections lists every collection, dataset-scoped ones first.
var Collections = []Collection{
	CollectionNodes,
	CollectionLinks,
	CollectionVisualLinks,
	CollectionDatasets,
}

// DatasetScoped reports whether rows of c carry a dataset foreign key.
func (c Collection) DatasetScoped() bool {
	return c != CollectionDatasets
}

func (c Collection) String() string { return string(c) }
