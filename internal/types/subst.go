package types

// SubstitutionMap maps dependent types (generic parameters and dependent
// member types) to their replacements. Keys are unique; insertion order
// carries no meaning.
type SubstitutionMap map[*Type]*Type

// Lookup returns the replacement for a dependent type, if one is bound.
func (sm SubstitutionMap) Lookup(depTy *Type) (*Type, bool) {
	replacement, exists := sm[depTy]

	return replacement, exists
}
