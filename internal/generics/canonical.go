package generics

import "github.com/orizon-lang/orizon-generics/internal/types"

// Canonicalize returns the canonical representative of sig within this
// context. The result is memoized on the signature itself: a canonical
// signature answers in O(1) with itself, a signature canonicalized before
// answers with the cached sibling, and only the first call computes.
//
// Canonicalizing twice returns the identical pointer, not merely an equal
// signature.
func (c *Context) Canonicalize(sig *GenericSignature) *GenericSignature {
	sig.slotMu.Lock()

	switch slot := sig.slot.(type) {
	case canonicalSelf:
		sig.slotMu.Unlock()

		return sig
	case canonicalSibling:
		sig.slotMu.Unlock()

		return slot.sig
	}
	sig.slotMu.Unlock()

	canon := c.computeCanonical(sig)

	if canon == sig {
		// The element-wise canonical form is the signature itself: record
		// the owning context instead of a sibling link.
		c.markCanonical(sig)

		return sig
	}

	c.markCanonical(canon)

	sig.slotMu.Lock()
	defer sig.slotMu.Unlock()

	// A racing canonicalization computed the same interned sibling; either
	// write stores the same pointer.
	if sig.slot == nil {
		sig.slot = canonicalSibling{sig: canon}
	}

	return canon
}

// computeCanonical canonicalizes every parameter and requirement type and
// interns the reassembled signature.
func (c *Context) computeCanonical(sig *GenericSignature) *GenericSignature {
	canonParams := make([]*types.Type, len(sig.params))
	for i, p := range sig.params {
		canonParams[i] = c.types.Canonicalize(p)
	}

	canonReqs := make([]Requirement, len(sig.requirements))
	for i, r := range sig.requirements {
		canonReqs[i] = Requirement{
			Kind:   r.Kind,
			First:  c.types.Canonicalize(r.First),
			Second: c.types.Canonicalize(r.Second),
		}
	}

	return c.internSignature(canonParams, canonReqs)
}

// markCanonical records that sig is its own canonical form.
func (c *Context) markCanonical(sig *GenericSignature) {
	sig.slotMu.Lock()
	defer sig.slotMu.Unlock()

	if sig.slot == nil {
		sig.slot = canonicalSelf{ctx: c}
	}
}
