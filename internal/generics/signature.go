package generics

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/orizon-lang/orizon-generics/internal/types"
)

// GenericSignature is an immutable list of generic parameters plus the
// requirements constraining them. Signatures are constructed and interned by
// a Context; structurally equal signatures built through the same context
// are the same pointer.
//
// The canonical-form slot is the only mutable state: a lazily computed,
// cached link to the signature's canonical representative.
type GenericSignature struct {
	params       []*types.Type
	requirements []Requirement

	slotMu sync.Mutex
	slot   canonicalSlot
}

// canonicalSlot is the cached canonicalization result. Exactly one variant
// is ever stored: canonicalSelf when the signature is its own canonical
// form (recording the owning context), or canonicalSibling pointing at the
// previously computed representative.
type canonicalSlot interface {
	isCanonicalSlot()
}

type canonicalSelf struct {
	ctx *Context
}

type canonicalSibling struct {
	sig *GenericSignature
}

func (canonicalSelf) isCanonicalSlot()    {}
func (canonicalSibling) isCanonicalSlot() {}

// GenericParams returns the signature's generic parameters in declaration
// order. The returned slice must not be mutated.
func (s *GenericSignature) GenericParams() []*types.Type {
	return s.params
}

// Requirements returns the signature's requirements in declaration order.
// The returned slice must not be mutated.
func (s *GenericSignature) Requirements() []Requirement {
	return s.requirements
}

// IsCanonical reports whether the signature is its own canonical form.
func (s *GenericSignature) IsCanonical() bool {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	_, ok := s.slot.(canonicalSelf)

	return ok
}

// OwningContext returns the context recorded on a canonical signature, or
// nil when the signature is not (known to be) canonical.
func (s *GenericSignature) OwningContext() *Context {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	if self, ok := s.slot.(canonicalSelf); ok {
		return self.ctx
	}

	return nil
}

// Key returns an injective structural encoding of the signature, the key
// signatures are interned under.
func (s *GenericSignature) Key() string {
	var sb strings.Builder

	sb.WriteByte('<')

	for i, p := range s.params {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(p.Key())
	}

	sb.WriteByte('>')

	for _, r := range s.requirements {
		sb.WriteByte(';')
		sb.WriteString(r.key())
	}

	return sb.String()
}

// Fingerprint returns a 64-bit structural fingerprint of the signature,
// the stable identity used for cache keys and offered to the mangler.
func (s *GenericSignature) Fingerprint() uint64 {
	return xxhash.Sum64String(s.Key())
}

// String returns a human-readable rendering of the signature.
func (s *GenericSignature) String() string {
	var sb strings.Builder

	sb.WriteByte('<')

	for i, p := range s.params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(p.String())
	}

	sb.WriteByte('>')

	if len(s.requirements) > 0 {
		sb.WriteString(" where ")

		for i, r := range s.requirements {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(r.String())
		}
	}

	return sb.String()
}

// AllDependentTypes returns the signature's dependent types in its canonical
// enumeration order: the generic parameters in declaration order, then every
// dependent member type at its first appearance walking the requirements
// left to right (first type, then second type). This is the order positional
// substitution binds against.
func (s *GenericSignature) AllDependentTypes() []*types.Type {
	all := make([]*types.Type, 0, len(s.params))
	seen := make(map[string]bool, len(s.params))

	for _, p := range s.params {
		if key := p.Key(); !seen[key] {
			seen[key] = true

			all = append(all, p)
		}
	}

	addMember := func(t *types.Type) {
		if t == nil || t.Kind != types.TypeKindDependentMember {
			return
		}

		if key := t.Key(); !seen[key] {
			seen[key] = true

			all = append(all, t)
		}
	}

	for _, r := range s.requirements {
		addMember(r.First)
		addMember(r.Second)
	}

	return all
}
