package generics

import (
	"github.com/orizon-lang/orizon-generics/internal/errors"
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// Substitution binds one dependent type to its replacement explicitly.
type Substitution struct {
	Archetype   *types.Type
	Replacement *types.Type
}

// SubstitutionMap zips the signature's dependent types against replacements.
// Explicit pairs seed the map; the flat replacement list is then consumed in
// lock-step against AllDependentTypes, binding each dependent type to the
// next unconsumed replacement.
//
// A signature with no generic parameters accepts no flat replacements, and
// the flat list must match the dependent-type list exactly; either count
// mismatch panics with an internal error.
func (s *GenericSignature) SubstitutionMap(pairs []Substitution, flat []*types.Type) types.SubstitutionMap {
	subs := make(types.SubstitutionMap)

	if len(s.params) == 0 {
		if len(flat) != 0 {
			panic(errors.SubstitutionsWithoutParams(len(flat)))
		}

		for _, pair := range pairs {
			subs[pair.Archetype] = pair.Replacement
		}

		return subs
	}

	for _, pair := range pairs {
		subs[pair.Archetype] = pair.Replacement
	}

	depTypes := s.AllDependentTypes()
	if len(flat) != len(depTypes) {
		panic(errors.SubstitutionCountMismatch(len(depTypes), len(flat)))
	}

	for i, depTy := range depTypes {
		subs[depTy] = flat[i]
	}

	return subs
}
