// Package types provides the canonical type representation used by the
// Orizon generic-signature core. It models the small grammar of types that
// can appear inside a generic signature: generic parameters, dependent
// member types reached through trait associated types, concrete nominal
// types, and trait existentials used as conformance bounds.
package types

import (
	"fmt"
	"strings"
)

// TypeKind represents the kind of a signature-level type.
type TypeKind int

const (
	// TypeKindGenericParam is an abstract placeholder identified by (depth, index).
	TypeKindGenericParam TypeKind = iota

	// TypeKindDependentMember is "the associated type N of trait P, reached through a base".
	TypeKindDependentMember

	// TypeKindConcrete is a concrete nominal type.
	TypeKindConcrete

	// TypeKindTrait is a trait existential, used as the bound of a conformance.
	TypeKindTrait

	// TypeKindAlias is a named sugar wrapper; canonicalization strips it.
	TypeKindAlias
)

// String returns a string representation of the type kind.
func (tk TypeKind) String() string {
	switch tk {
	case TypeKindGenericParam:
		return "generic-param"
	case TypeKindDependentMember:
		return "dependent-member"
	case TypeKindConcrete:
		return "concrete"
	case TypeKindTrait:
		return "trait"
	case TypeKindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Type represents a signature-level type as a kind tag plus a payload.
// Types handed out by an Interner are canonical: pointer-unique, immutable,
// and safe to share across goroutines.
type Type struct {
	Kind TypeKind
	Data interface{}

	canonical bool
}

// GenericParamType identifies a generic parameter by scope depth and
// position within the scope. Two parameters with equal (depth, index) are
// the same parameter.
type GenericParamType struct {
	Depth uint32
	Index uint32
}

// DependentMemberType is the associated type Name of Trait, accessed through
// Base. Base may itself be a dependent member type.
type DependentMemberType struct {
	Base  *Type
	Trait *TraitRef
	Name  string
}

// ConcreteType is a concrete nominal type. The signature core never looks
// inside a concrete type; its name is its identity.
type ConcreteType struct {
	Name string
}

// TraitType is a trait existential.
type TraitType struct {
	Trait *TraitRef
}

// AliasType is a named alias for another type. Aliases are transparent to
// canonicalization and never appear in canonical types.
type AliasType struct {
	Name       string
	Underlying *Type
}

// NewGenericParam creates a generic parameter type.
func NewGenericParam(depth, index uint32) *Type {
	return &Type{
		Kind: TypeKindGenericParam,
		Data: &GenericParamType{Depth: depth, Index: index},
	}
}

// NewDependentMember creates a dependent member type.
func NewDependentMember(base *Type, trait *TraitRef, name string) *Type {
	return &Type{
		Kind: TypeKindDependentMember,
		Data: &DependentMemberType{Base: base, Trait: trait, Name: name},
	}
}

// NewConcrete creates a concrete nominal type.
func NewConcrete(name string) *Type {
	return &Type{
		Kind: TypeKindConcrete,
		Data: &ConcreteType{Name: name},
	}
}

// NewTraitExistential creates a trait existential type for a conformance bound.
func NewTraitExistential(trait *TraitRef) *Type {
	return &Type{
		Kind: TypeKindTrait,
		Data: &TraitType{Trait: trait},
	}
}

// NewAlias creates an alias wrapper around another type.
func NewAlias(name string, underlying *Type) *Type {
	return &Type{
		Kind: TypeKindAlias,
		Data: &AliasType{Name: name, Underlying: underlying},
	}
}

// IsCanonical reports whether this type was produced by an Interner.
func (t *Type) IsCanonical() bool {
	return t.canonical
}

// IsDependent reports whether the type is a generic parameter or a dependent
// member type, the two kinds that stand for unknowns in a signature.
func (t *Type) IsDependent() bool {
	return t.Kind == TypeKindGenericParam || t.Kind == TypeKindDependentMember
}

// GenericParam returns the generic-parameter payload.
// It panics if the type is of a different kind.
func (t *Type) GenericParam() *GenericParamType {
	return t.Data.(*GenericParamType)
}

// DependentMember returns the dependent-member payload.
// It panics if the type is of a different kind.
func (t *Type) DependentMember() *DependentMemberType {
	return t.Data.(*DependentMemberType)
}

// Concrete returns the concrete payload.
// It panics if the type is of a different kind.
func (t *Type) Concrete() *ConcreteType {
	return t.Data.(*ConcreteType)
}

// TraitBound returns the trait-existential payload.
// It panics if the type is of a different kind.
func (t *Type) TraitBound() *TraitType {
	return t.Data.(*TraitType)
}

// Alias returns the alias payload.
// It panics if the type is of a different kind.
func (t *Type) Alias() *AliasType {
	return t.Data.(*AliasType)
}

// Key returns an injective structural encoding of the type. Structurally
// equal types have equal keys; canonicalization and signature interning are
// keyed on it. Aliases keep their own key so that sugared and desugared
// spellings of a type remain distinct until canonicalized.
func (t *Type) Key() string {
	var sb strings.Builder

	t.appendKey(&sb)

	return sb.String()
}

func (t *Type) appendKey(sb *strings.Builder) {
	switch t.Kind {
	case TypeKindGenericParam:
		gp := t.GenericParam()
		fmt.Fprintf(sb, "τ%d_%d", gp.Depth, gp.Index)
	case TypeKindDependentMember:
		dm := t.DependentMember()
		dm.Base.appendKey(sb)
		sb.WriteString(".(")
		sb.WriteString(dm.Trait.Key())
		sb.WriteByte(':')
		sb.WriteString(dm.Name)
		sb.WriteByte(')')
	case TypeKindConcrete:
		sb.WriteString("C:")
		sb.WriteString(t.Concrete().Name)
	case TypeKindTrait:
		sb.WriteString("X:")
		sb.WriteString(t.TraitBound().Trait.Key())
	case TypeKindAlias:
		al := t.Alias()
		sb.WriteString("A:")
		sb.WriteString(al.Name)
		sb.WriteByte('=')
		al.Underlying.appendKey(sb)
	}
}

// String returns a human-readable rendering of the type.
func (t *Type) String() string {
	switch t.Kind {
	case TypeKindGenericParam:
		gp := t.GenericParam()

		return fmt.Sprintf("τ%d_%d", gp.Depth, gp.Index)
	case TypeKindDependentMember:
		dm := t.DependentMember()

		return fmt.Sprintf("%s.%s.%s", dm.Base.String(), dm.Trait.Name, dm.Name)
	case TypeKindConcrete:
		return t.Concrete().Name
	case TypeKindTrait:
		return "any " + t.TraitBound().Trait.Name
	case TypeKindAlias:
		return t.Alias().Name
	default:
		return "<invalid>"
	}
}

// Equals reports structural equality. Canonical types may be compared by
// pointer instead; two canonical types are structurally equal iff identical.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}

	if other == nil {
		return false
	}

	return t.Key() == other.Key()
}
