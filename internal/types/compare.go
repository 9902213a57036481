package types

import "strings"

// CompareDependentTypes is the canonical ordering over the types that appear
// in generic signatures. It returns a negative value, zero, or a positive
// value as a sorts before, equal to, or after b.
//
// The order is: generic parameters (by depth, then index), then dependent
// member types (recursively by base, then trait, then associated-type name),
// then everything else. All remaining types compare equal to each other; a
// same-type equivalence class holds at most one non-dependent type, so no
// finer order among them is ever needed.
//
// Every tie-break is content-derived, never address-derived, so the order is
// stable across runs for identical logical input.
func CompareDependentTypes(a, b *Type) int {
	// Fast path for canonical types, which are pointer-unique.
	if a == b {
		return 0
	}

	if a.Kind == TypeKindGenericParam {
		if b.Kind != TypeKindGenericParam {
			return -1
		}

		gpa, gpb := a.GenericParam(), b.GenericParam()
		if gpa.Depth != gpb.Depth {
			return compareUint32(gpa.Depth, gpb.Depth)
		}

		if gpa.Index != gpb.Index {
			return compareUint32(gpa.Index, gpb.Index)
		}

		return 0
	}

	if a.Kind == TypeKindDependentMember {
		switch b.Kind {
		case TypeKindGenericParam:
			return 1
		case TypeKindDependentMember:
			dma, dmb := a.DependentMember(), b.DependentMember()

			if c := CompareDependentTypes(dma.Base, dmb.Base); c != 0 {
				return c
			}

			if c := CompareTraits(dma.Trait, dmb.Trait); c != 0 {
				return c
			}

			return strings.Compare(dma.Name, dmb.Name)
		default:
			return -1
		}
	}

	if b.Kind == TypeKindGenericParam || b.Kind == TypeKindDependentMember {
		return 1
	}

	return 0
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
