package types

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// TraitRef identifies a trait declaration. References are compared by
// (module path, name); the pair is the trait's stable identity across runs.
type TraitRef struct {
	// Name is the trait's declared name within its module.
	Name string

	// ModulePath is the defining module.
	ModulePath string

	// Introduced is the version of ModulePath that first declared the
	// trait, or nil when the trait has always existed.
	Introduced *semver.Version

	// Inherits lists the traits this trait refines. A conformance to the
	// trait implies a conformance to every inherited trait.
	Inherits []*TraitRef
}

// NewTraitRef creates a trait reference.
func NewTraitRef(modulePath, name string) *TraitRef {
	return &TraitRef{Name: name, ModulePath: modulePath}
}

// Key returns the trait's stable identity string.
func (tr *TraitRef) Key() string {
	return tr.ModulePath + "." + tr.Name
}

// String returns the trait's qualified name.
func (tr *TraitRef) String() string {
	return tr.Key()
}

// CompareTraits is the canonical total order over traits: bytewise by module
// path, then by name. It depends only on declaration identity, never on
// pointer values, so it is stable across runs.
func CompareTraits(a, b *TraitRef) int {
	if a == b {
		return 0
	}

	if c := strings.Compare(a.ModulePath, b.ModulePath); c != 0 {
		return c
	}

	return strings.Compare(a.Name, b.Name)
}
