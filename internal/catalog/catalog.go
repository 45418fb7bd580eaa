// Package catalog is the immutable registry of executable actions.
//
// Each action is described by a Spec: its identifier, side-effect category,
// parameter schema and a constructor for the typed request the untyped
// parameter bag is bound to. The catalog is built once and only read
// afterwards, so lookups need no locking.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Category is the side-effect class of an action.
type Category string

const (
	CategoryFilesystem  Category = "filesystem"
	CategoryProcess     Category = "process"
	CategoryBrowser     Category = "browser"
	CategoryUI          Category = "ui"
	CategoryIntegration Category = "integration"
	CategoryNoop        Category = "noop"
)

// ParamKind is the accepted shape of a parameter.
type ParamKind string

const (
	KindString ParamKind = "string"
	KindBool   ParamKind = "boolean"
	KindNumber ParamKind = "number"
	KindList   ParamKind = "array"
)

// Param describes one named parameter of an action.
type Param struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Outcome is what a successful request reports.
type Outcome struct {
	Message string
	Value   any
}

// Request is a typed, bound action ready to run.
type Request interface {
	Execute(ctx context.Context) (Outcome, error)
}

// Validator is implemented by requests with value rules beyond presence.
type Validator interface {
	Validate() error
}

// Spec describes one action.
type Spec struct {
	ID          string         `json:"id"`
	Category    Category       `json:"category"`
	Description string         `json:"description"`
	Params      []Param        `json:"params"`
	New         func() Request `json:"-"`
}

// Required returns the names of required parameters in declaration order.
func (s Spec) Required() []string {
	var out []string
	for _, p := range s.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Catalog errors.
var (
	ErrDuplicateAction = errors.New("catalog: duplicate action")
	ErrInvalidSpec     = errors.New("catalog: invalid spec")
)

// Catalog maps action identifiers to specs.
type Catalog struct {
	specs map[string]Spec
	ids   []string
}

// New builds a catalog. Identifiers must be unique and every spec needs a
// request constructor.
func New(specs ...Spec) (*Catalog, error) {
	c := &Catalog{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if s.ID == "" || s.New == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, s.ID)
		}
		if _, exists := c.specs[s.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, s.ID)
		}
		c.specs[s.ID] = s
		c.ids = append(c.ids, s.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// MustNew is New for static catalogs built at start-up.
func MustNew(specs ...Spec) *Catalog {
	c, err := New(specs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve looks up an action by exact identifier.
func (c *Catalog) Resolve(id string) (Spec, bool) {
	s, ok := c.specs[id]
	return s, ok
}

// Names returns all identifiers, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// All returns every spec sorted by identifier.
func (c *Catalog) All() []Spec {
	out := make([]Spec, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.specs[id])
	}
	return out
}

// Len returns the number of actions.
func (c *Catalog) Len() int { return len(c.ids) }
