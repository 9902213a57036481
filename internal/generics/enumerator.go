package generics

import (
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// EnumerationPolicy controls how an enumerator classifies the requirements
// it re-derives from a signature.
type EnumerationPolicy int

const (
	// PolicyTreatAsExplicit makes every requirement present in the seed
	// signature authoritative: it is emitted as explicit rather than
	// re-inferred. Minimization always enumerates under this policy.
	PolicyTreatAsExplicit EnumerationPolicy = iota

	// PolicyPreserveInference tags re-derived constraint requirements as
	// inferred, leaving only witness markers authoritative.
	PolicyPreserveInference
)

// EmittedRequirement is one tuple of an enumerator's output stream: a
// requirement over canonical types plus the provenance that produced it.
type EmittedRequirement struct {
	Kind RequirementKind

	// Subject is the dependent type the requirement constrains.
	Subject *types.Type

	// Constraint is nil for witness markers, the bound for conformances,
	// and the resolved equivalence-class representative for same-type
	// requirements (concrete when the class contains a concrete type).
	Constraint *types.Type

	Source RequirementSource
}

// RequirementEnumerator re-derives a signature's full requirement stream
// from first principles. Implementations must emit a witness marker for
// every dependent type before any other requirement referencing it, must
// resolve same-type constraints to their class representative, and must
// return an owned slice the caller is free to iterate without the
// enumerator staying live.
type RequirementEnumerator interface {
	EnumerateRequirements(sig *GenericSignature, mod *Module, policy EnumerationPolicy) []EmittedRequirement
}

// SignatureEnumerator is the reference enumerator. It derives the stream
// from the seed signature itself: witness markers for every dependent type,
// the signature's own conformance and same-type requirements under the
// requested policy, conformances implied by trait inheritance (tagged as
// trait-derived, and only for traits the output module sees), and duplicate
// emissions tagged redundant.
type SignatureEnumerator struct {
	types *types.Interner
}

// NewSignatureEnumerator creates a reference enumerator canonicalizing
// through the given interner.
func NewSignatureEnumerator(interner *types.Interner) *SignatureEnumerator {
	return &SignatureEnumerator{types: interner}
}

// EnumerateRequirements implements RequirementEnumerator.
func (e *SignatureEnumerator) EnumerateRequirements(sig *GenericSignature, mod *Module, policy EnumerationPolicy) []EmittedRequirement {
	baseSource := SourceExplicit
	if policy == PolicyPreserveInference {
		baseSource = SourceInferred
	}

	depTypes := e.dependentTypes(sig)

	// Resolve same-type classes up front so every emission can name its
	// class representative.
	uf := newUnionFind()

	for _, r := range sig.requirements {
		if r.Kind != RequirementSameType {
			continue
		}

		uf.union(e.types.Canonicalize(r.First), e.types.Canonicalize(r.Second))
	}

	out := make([]EmittedRequirement, 0, len(depTypes)+len(sig.requirements))

	// Witness markers first, one per dependent type. Markers for generic
	// parameters are explicit; markers for dependent member types exist
	// because of the trait that declares the associated type.
	for _, depTy := range depTypes {
		source := SourceExplicit
		if depTy.Kind == types.TypeKindDependentMember {
			source = SourceTrait
		}

		out = append(out, EmittedRequirement{
			Kind:    RequirementWitnessMarker,
			Subject: depTy,
			Source:  source,
		})
	}

	// Conformance requirements, with trait-implied expansion.
	seenConformance := make(map[string]bool)

	for _, r := range sig.requirements {
		if r.Kind != RequirementConformance {
			continue
		}

		subject := e.types.Canonicalize(r.First)
		bound := e.types.Canonicalize(r.Second)

		source := baseSource

		dupKey := subject.Key() + "|" + bound.Key()
		if seenConformance[dupKey] {
			source = SourceRedundant
		}

		seenConformance[dupKey] = true

		out = append(out, EmittedRequirement{
			Kind:       RequirementConformance,
			Subject:    subject,
			Constraint: bound,
			Source:     source,
		})

		if bound.Kind == types.TypeKindTrait {
			out = e.emitInherited(out, subject, bound.TraitBound().Trait, mod)
		}
	}

	// Same-type requirements, one per non-representative class member.
	out = e.emitSameTypes(out, depTypes, uf, baseSource)

	return out
}

// emitInherited emits trait-derived conformances for every trait the bound
// refines, recursively, skipping traits the output module does not see.
func (e *SignatureEnumerator) emitInherited(out []EmittedRequirement, subject *types.Type, trait *types.TraitRef, mod *Module) []EmittedRequirement {
	for _, inherited := range trait.Inherits {
		if mod != nil && !mod.Sees(inherited) {
			continue
		}

		out = append(out, EmittedRequirement{
			Kind:       RequirementConformance,
			Subject:    subject,
			Constraint: e.types.Canonicalize(types.NewTraitExistential(inherited)),
			Source:     SourceTrait,
		})

		out = e.emitInherited(out, subject, inherited, mod)
	}

	return out
}

// emitSameTypes walks the dependent types in enumeration order and emits one
// same-type requirement per class member that is not the representative.
func (e *SignatureEnumerator) emitSameTypes(out []EmittedRequirement, depTypes []*types.Type, uf *unionFind, source RequirementSource) []EmittedRequirement {
	for _, depTy := range depTypes {
		root := uf.find(depTy)
		if root == depTy || uf.size(root) < 2 {
			continue
		}

		out = append(out, EmittedRequirement{
			Kind:       RequirementSameType,
			Subject:    depTy,
			Constraint: root,
			Source:     source,
		})
	}

	return out
}

// dependentTypes returns the canonicalized dependent types of sig in its
// enumeration order.
func (e *SignatureEnumerator) dependentTypes(sig *GenericSignature) []*types.Type {
	raw := sig.AllDependentTypes()
	canon := make([]*types.Type, len(raw))

	for i, t := range raw {
		canon[i] = e.types.Canonicalize(t)
	}

	return canon
}

// unionFind tracks same-type equivalence classes over canonical types.
// Roots prefer concrete types, then the least dependent type under the
// canonical ordering, so class representatives are content-derived.
type unionFind struct {
	parent map[*types.Type]*types.Type
	sizes  map[*types.Type]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[*types.Type]*types.Type),
		sizes:  make(map[*types.Type]int),
	}
}

func (uf *unionFind) find(t *types.Type) *types.Type {
	p, exists := uf.parent[t]
	if !exists {
		uf.parent[t] = t
		uf.sizes[t] = 1

		return t
	}

	if p == t {
		return t
	}

	root := uf.find(p)
	uf.parent[t] = root

	return root
}

func (uf *unionFind) union(a, b *types.Type) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}

	root, child := preferRoot(ra, rb)
	uf.parent[child] = root
	uf.sizes[root] += uf.sizes[child]
}

func (uf *unionFind) size(root *types.Type) int {
	return uf.sizes[uf.find(root)]
}

// preferRoot picks the class representative between two roots: a concrete
// type wins over a dependent one; between dependent types the lesser under
// the canonical ordering wins; between two non-dependent types the lesser
// structural key wins (a class holds at most one in well-formed input).
func preferRoot(a, b *types.Type) (root, child *types.Type) {
	switch {
	case !a.IsDependent() && b.IsDependent():
		return a, b
	case a.IsDependent() && !b.IsDependent():
		return b, a
	case a.IsDependent() && b.IsDependent():
		if types.CompareDependentTypes(a, b) <= 0 {
			return a, b
		}

		return b, a
	default:
		if a.Key() <= b.Key() {
			return a, b
		}

		return b, a
	}
}
