// Package taxonomy holds the canonical module catalog: module keys, their
// display order, the document types they apply to, and the alias table used
// to normalize module instances written under earlier schema revisions.
package taxonomy

import "errors"

// Kind classifies a catalog module.
type Kind string

const (
	// KindInput modules are filled in by the assessor.
	KindInput Kind = "input"
	// KindDerived modules are computed from other modules.
	KindDerived Kind = "derived"
)

// Valid reports whether k is a known module kind.
func (k Kind) Valid() bool {
	return k == KindInput || k == KindDerived
}

// Configuration errors returned by LoadCatalog. Any of them means the process
// must not start serving with the loaded catalog.
var (
	ErrMissingKind    = errors.New("catalog entry has no kind")
	ErrUnknownKind    = errors.New("catalog entry has an unknown kind")
	ErrEmptyKey       = errors.New("catalog entry has an empty key")
	ErrDuplicateKey   = errors.New("duplicate catalog key")
	ErrUnknownAlias   = errors.New("alias target is not a catalog key")
	ErrAliasShadowing = errors.New("alias source is a canonical catalog key")
)

// Entry describes one canonical module.
type Entry struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	DocTypes    []string `json:"docTypes"`
	// Order is nil when the catalog gives no explicit position; such entries
	// sort after every ordered entry.
	Order  *int `json:"order,omitempty"`
	Kind   Kind `json:"kind"`
	Hidden bool `json:"hidden,omitempty"`
}

// AppliesTo reports whether the entry is used by the given document type.
func (e Entry) AppliesTo(docType string) bool {
	for _, t := range e.DocTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// Keyed is implemented by anything stored under a module key, typically a
// module instance row.
type Keyed interface {
	Key() string
}
