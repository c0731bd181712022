package tern

import (
	"strings"

	"github.com/google/uuid"
)

// Variable is a named placeholder in a Pattern. A Variable may carry a bound
// value, in which case it matches only that value; unbound it matches any
// term. Variables are shared by pointer so that rebinding one occurrence is
// visible everywhere the instance appears.
type Variable struct {
	Name  string
	value Term
}

// NewVariable returns an unbound variable with the given name. With no name
// a fresh one is generated, so distinct anonymous variables never collide.
func NewVariable(name ...string) *Variable {
	if len(name) > 0 && name[0] != "" {
		return &Variable{Name: name[0]}
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &Variable{Name: "g" + id[:10]}
}

// BoundVariable returns a variable pre-bound to value.
func BoundVariable(name string, value Term) *Variable {
	return &Variable{Name: name, value: value}
}

// Bound reports whether the variable carries a value.
func (v *Variable) Bound() bool { return v.value != nil }

// Value returns the bound value, or nil when unbound.
func (v *Variable) Value() Term { return v.value }

// Bind sets the variable's value. Binding to nil unbinds it.
func (v *Variable) Bind(value Term) { v.value = value }

func (v *Variable) String() string { return "?" + v.Name }

// NewBlankNode returns a blank node with a generated identifier, used for
// fresh list interior nodes.
func NewBlankNode() BlankNode {
	return BlankNode("b" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
