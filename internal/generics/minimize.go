package generics

import (
	"sort"

	"github.com/orizon-lang/orizon-generics/internal/errors"
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// MinimizeSignature reduces sig to its minimal, deterministically ordered
// requirement set for the given output module: the form suitable for stable
// external encoding. The result is cached per (canonical signature, module);
// repeated calls return the identical signature.
//
// The requirement stream is re-derived through the enumerator with every
// seed requirement treated as explicit, filtered by provenance, bucketed,
// and re-emitted in a fixed layout: for each dependent type in canonical
// order its witness marker, superclass bound, and trait conformances in
// canonical trait order; then all same-type requirements as their own block
// sorted by (left, right).
//
// Invariant violations in the enumerator's stream panic with an internal
// error; no partially built signature is ever cached or returned.
func (c *Context) MinimizeSignature(sig *GenericSignature, mod *Module, enum RequirementEnumerator) *GenericSignature {
	canonical := c.Canonicalize(sig)

	key := minimizedKey{canonical: canonical}
	if mod != nil {
		key.module = mod.CacheKey()
	}

	if cached, exists := c.lookupMinimized(key); exists {
		return cached
	}

	// Collapse concurrent minimizations of the same key into one
	// computation; the build is pure, so every waiter can share the result.
	// Internal errors cross the flight as error values so the original
	// panic value reaches every waiter intact. The context id prefixes the
	// key so flight keys stay disjoint across contexts.
	flightKey := c.id.String() + "\x00" + canonical.Key() + "\x00" + key.module

	v, err, _ := c.flight.Do(flightKey, func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				ie, ok := r.(*errors.InternalError)
				if !ok {
					panic(r)
				}

				err = ie
			}
		}()

		return c.buildMinimized(canonical, mod, enum), nil
	})
	if err != nil {
		panic(err)
	}

	return c.storeMinimized(key, v.(*GenericSignature))
}

// dependentConstraints buckets the kept conformance requirements of one
// dependent type: at most one superclass bound plus trait bounds.
type dependentConstraints struct {
	superclass *types.Type
	traits     []*types.Type
}

// buildMinimized computes the minimized signature for an already canonical
// seed. Phase one collects the enumerator's owned emission slice; phase two
// filters, buckets, sorts, and re-emits.
func (c *Context) buildMinimized(canonical *GenericSignature, mod *Module, enum RequirementEnumerator) *GenericSignature {
	emitted := enum.EnumerateRequirements(canonical, mod, PolicyTreatAsExplicit)

	var depTypes []*types.Type

	seen := make(map[*types.Type]bool)
	constraints := make(map[*types.Type]*dependentConstraints)
	sameTypes := make(map[*types.Type][]*types.Type)

	// Representatives in first-seen order; map iteration order must never
	// leak into output.
	var sameTypeReps []*types.Type

	for _, em := range emitted {
		switch FilterRequirement(em.Kind, em.Source) {
		case FilterDrop:
			continue
		case FilterFatal:
			panic(errors.OuterScopeRequirement(em.Kind.String()))
		}

		depTy := c.types.Canonicalize(em.Subject)

		switch em.Kind {
		case RequirementWitnessMarker:
			depTypes = append(depTypes, depTy)
			seen[depTy] = true

		case RequirementConformance:
			if !seen[depTy] {
				panic(errors.MissingWitnessMarker(depTy.String()))
			}

			bucket := constraints[depTy]
			if bucket == nil {
				bucket = &dependentConstraints{}
				constraints[depTy] = bucket
			}

			bound := c.types.Canonicalize(em.Constraint)
			if bound.Kind == types.TypeKindTrait {
				bucket.traits = append(bucket.traits, bound)
			} else {
				if bucket.superclass != nil {
					panic(errors.DuplicateSuperclassBound(
						depTy.String(), bucket.superclass.String(), bound.String()))
				}

				bucket.superclass = bound
			}

		case RequirementSameType:
			if !seen[depTy] {
				panic(errors.MissingWitnessMarker(depTy.String()))
			}

			rep := c.types.Canonicalize(em.Constraint)
			if _, exists := sameTypes[rep]; !exists {
				sameTypeReps = append(sameTypeReps, rep)
			}

			sameTypes[rep] = append(sameTypes[rep], depTy)
		}
	}

	// Canonical order fixes the output position of every witness marker and
	// conformance requirement.
	sort.SliceStable(depTypes, func(i, j int) bool {
		return types.CompareDependentTypes(depTypes[i], depTypes[j]) < 0
	})

	minimal := make([]Requirement, 0, len(depTypes)+len(sameTypeReps))

	for _, depTy := range depTypes {
		minimal = append(minimal, Requirement{Kind: RequirementWitnessMarker, First: depTy})

		bucket := constraints[depTy]
		if bucket == nil {
			continue
		}

		if bucket.superclass != nil {
			minimal = append(minimal, Requirement{
				Kind:   RequirementConformance,
				First:  depTy,
				Second: bucket.superclass,
			})
		}

		sort.SliceStable(bucket.traits, func(i, j int) bool {
			return types.CompareTraits(bucket.traits[i].TraitBound().Trait, bucket.traits[j].TraitBound().Trait) < 0
		})

		for _, trait := range bucket.traits {
			minimal = append(minimal, Requirement{
				Kind:   RequirementConformance,
				First:  depTy,
				Second: trait,
			})
		}
	}

	// Same-type requirements form their own sorted block. Within a class
	// the greatest type becomes the right-hand side; non-dependent types
	// sort after all dependent types, so a concrete representative is
	// always chosen as the right-hand side when present.
	var sameReqs []Requirement

	for _, rep := range sameTypeReps {
		group := append([]*types.Type(nil), sameTypes[rep]...)
		group = append(group, rep)

		sort.SliceStable(group, func(i, j int) bool {
			return types.CompareDependentTypes(group[i], group[j]) < 0
		})

		rhs := group[len(group)-1]
		for _, lhs := range group[:len(group)-1] {
			sameReqs = append(sameReqs, Requirement{
				Kind:   RequirementSameType,
				First:  lhs,
				Second: rhs,
			})
		}
	}

	sort.SliceStable(sameReqs, func(i, j int) bool {
		if cmp := types.CompareDependentTypes(sameReqs[i].First, sameReqs[j].First); cmp != 0 {
			return cmp < 0
		}

		return types.CompareDependentTypes(sameReqs[i].Second, sameReqs[j].Second) < 0
	})

	minimal = append(minimal, sameReqs...)

	params := make([]*types.Type, len(canonical.params))
	for i, p := range canonical.params {
		params[i] = c.types.Canonicalize(p)
	}

	minimized := c.internSignature(params, minimal)
	c.markCanonical(minimized)

	return minimized
}
