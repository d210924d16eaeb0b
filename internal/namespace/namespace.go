// Package namespace provides the session-scoped registry that maps
// human-readable names to stable integer identifiers and back.
//
// A Namespace is not safe for concurrent use. The engine keeps it behind its
// coordinator goroutine; nothing else mutates it.
package namespace

import (
	"fmt"

	"github.com/vk/amnis/internal/errs"
)

// Namespace is a bidirectional name <-> id table. Ids start at 1 and are
// never reused within one Namespace.
type Namespace struct {
	next   int
	byName map[string]int
	byID   map[int]string
}

// New creates an empty Namespace.
func New() *Namespace {
	return &Namespace{
		next:   1,
		byName: make(map[string]int),
		byID:   make(map[int]string),
	}
}

// Register allocates a fresh id for name and returns it. Registering a name
// that is already bound shadows it: the name moves to the new id and the old
// id is left without a name.
func (n *Namespace) Register(name string) int {
	if old, ok := n.byName[name]; ok {
		delete(n.byID, old)
	}
	id := n.next
	n.next++
	n.byName[name] = id
	n.byID[id] = name
	return id
}

// ID returns the id currently bound to name.
func (n *Namespace) ID(name string) (int, bool) {
	id, ok := n.byName[name]
	return id, ok
}

// Name returns the name currently bound to id.
func (n *Namespace) Name(id int) (string, bool) {
	name, ok := n.byID[id]
	return name, ok
}

// RequireID is ID for references that must already exist.
func (n *Namespace) RequireID(name string) (int, error) {
	id, ok := n.byName[name]
	if !ok {
		return 0, fmt.Errorf("undeclared name %q: %w", name, errs.ErrInvalidInput)
	}
	return id, nil
}

// Unregister removes name and its id from both directions.
func (n *Namespace) Unregister(name string) bool {
	id, ok := n.byName[name]
	if !ok {
		return false
	}
	delete(n.byName, name)
	delete(n.byID, id)
	return true
}

// UnregisterID removes id and its name from both directions.
func (n *Namespace) UnregisterID(id int) bool {
	name, ok := n.byID[id]
	if !ok {
		return false
	}
	delete(n.byID, id)
	delete(n.byName, name)
	return true
}

// Len returns the number of live bindings.
func (n *Namespace) Len() int {
	return len(n.byName)
}
