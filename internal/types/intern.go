package types

import "sync"

// Interner canonicalizes types. Canonicalization strips alias sugar and maps
// every structurally equal type to one shared, immutable instance, so
// canonical types can be compared and used as map keys by pointer.
//
// An Interner is safe for concurrent use; lookups take a read lock and
// inserts use a double-checked write section, so racing goroutines agree on
// the single canonical instance.
type Interner struct {
	mu   sync.RWMutex
	pool map[string]*Type
}

// NewInterner creates an empty type interner.
func NewInterner() *Interner {
	return &Interner{pool: make(map[string]*Type)}
}

// Canonicalize returns the canonical form of t. It is idempotent: a
// canonical type is returned unchanged in O(1), and canonicalizing two
// structurally equal types yields the identical pointer.
func (in *Interner) Canonicalize(t *Type) *Type {
	if t == nil {
		return nil
	}

	if t.canonical {
		return t
	}

	switch t.Kind {
	case TypeKindGenericParam:
		gp := t.GenericParam()

		return in.intern(t.Key(), func() *Type {
			return &Type{
				Kind:      TypeKindGenericParam,
				Data:      &GenericParamType{Depth: gp.Depth, Index: gp.Index},
				canonical: true,
			}
		})

	case TypeKindDependentMember:
		dm := t.DependentMember()
		base := in.Canonicalize(dm.Base)
		canon := &Type{
			Kind:      TypeKindDependentMember,
			Data:      &DependentMemberType{Base: base, Trait: dm.Trait, Name: dm.Name},
			canonical: true,
		}

		return in.intern(canon.Key(), func() *Type { return canon })

	case TypeKindConcrete:
		name := t.Concrete().Name

		return in.intern(t.Key(), func() *Type {
			return &Type{Kind: TypeKindConcrete, Data: &ConcreteType{Name: name}, canonical: true}
		})

	case TypeKindTrait:
		trait := t.TraitBound().Trait

		return in.intern(t.Key(), func() *Type {
			return &Type{Kind: TypeKindTrait, Data: &TraitType{Trait: trait}, canonical: true}
		})

	case TypeKindAlias:
		// Aliases are transparent: the canonical form of the sugar is the
		// canonical form of what it names.
		return in.Canonicalize(t.Alias().Underlying)

	default:
		panic("types: canonicalize of unknown type kind")
	}
}

// intern returns the pooled type for key, building it with mk on first use.
func (in *Interner) intern(key string, mk func() *Type) *Type {
	in.mu.RLock()
	if pooled, exists := in.pool[key]; exists {
		in.mu.RUnlock()

		return pooled
	}
	in.mu.RUnlock()

	fresh := mk()

	in.mu.Lock()
	defer in.mu.Unlock()

	// Double-check: another goroutine may have inserted while we built.
	if pooled, exists := in.pool[key]; exists {
		return pooled
	}

	in.pool[key] = fresh

	return fresh
}

// Size returns the number of pooled canonical types.
func (in *Interner) Size() int {
	in.mu.RLock()
	defer in.mu.RUnlock()

	return len(in.pool)
}
