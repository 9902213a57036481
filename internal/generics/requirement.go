// Package generics implements generic-signature canonicalization and
// requirement minimization for the Orizon compiler. A signature maps to one
// canonical representative per compilation context, and the minimizer
// reduces a canonical signature to the smallest deterministically ordered
// requirement set, the form consumed by symbol mangling.
package generics

import (
	"fmt"

	"github.com/orizon-lang/orizon-generics/internal/types"
)

// RequirementKind represents the kind of a signature requirement.
type RequirementKind int

const (
	// RequirementWitnessMarker registers that a dependent type takes part in
	// the signature without constraining it.
	RequirementWitnessMarker RequirementKind = iota

	// RequirementConformance bounds a dependent type by a trait existential
	// or by a concrete superclass.
	RequirementConformance

	// RequirementSameType declares two types equal.
	RequirementSameType
)

// String returns a string representation of the requirement kind.
func (rk RequirementKind) String() string {
	switch rk {
	case RequirementWitnessMarker:
		return "witness-marker"
	case RequirementConformance:
		return "conformance"
	case RequirementSameType:
		return "same-type"
	default:
		return "unknown"
	}
}

// Requirement is one entry of a generic signature. Second is nil for
// witness markers, the bound for conformances, and the right-hand type for
// same-type requirements.
type Requirement struct {
	Kind   RequirementKind
	First  *types.Type
	Second *types.Type
}

// String returns a string representation of the requirement.
func (r Requirement) String() string {
	switch r.Kind {
	case RequirementWitnessMarker:
		return fmt.Sprintf("witness %s", r.First)
	case RequirementConformance:
		return fmt.Sprintf("%s: %s", r.First, r.Second)
	case RequirementSameType:
		return fmt.Sprintf("%s == %s", r.First, r.Second)
	default:
		return "<invalid requirement>"
	}
}

// key is the requirement's structural identity, used for signature interning.
func (r Requirement) key() string {
	if r.Second == nil {
		return fmt.Sprintf("%d|%s", r.Kind, r.First.Key())
	}

	return fmt.Sprintf("%d|%s|%s", r.Kind, r.First.Key(), r.Second.Key())
}

// RequirementSource tags where an enumerated requirement came from. Sources
// drive the provenance filter and are not persisted in minimized output.
type RequirementSource int

const (
	// SourceExplicit marks a requirement written in the declaration.
	SourceExplicit RequirementSource = iota

	// SourceTrait marks a requirement implied by a trait declaration.
	SourceTrait

	// SourceRedundant marks a requirement already implied by another.
	SourceRedundant

	// SourceInferred marks a requirement recovered by inference.
	SourceInferred

	// SourceOuterScope marks a requirement inherited from an enclosing
	// scope. It must never reach minimization.
	SourceOuterScope
)

// String returns a string representation of the requirement source.
func (rs RequirementSource) String() string {
	switch rs {
	case SourceExplicit:
		return "explicit"
	case SourceTrait:
		return "trait"
	case SourceRedundant:
		return "redundant"
	case SourceInferred:
		return "inferred"
	case SourceOuterScope:
		return "outer-scope"
	default:
		return "unknown"
	}
}

// FilterAction is the provenance filter's verdict on one emission.
type FilterAction int

const (
	// FilterKeep retains the requirement in minimized output.
	FilterKeep FilterAction = iota

	// FilterDrop discards the requirement as redundant for encoding.
	FilterDrop

	// FilterFatal aborts minimization; the emission violates the
	// enumerator's contract.
	FilterFatal
)

// FilterRequirement decides whether an enumerated requirement survives
// minimization. Explicit requirements always survive. Trait-implied
// requirements survive only as witness markers: the marker records that the
// dependent type exists, while the conformance itself is recoverable from
// the trait declaration. Redundant and inferred requirements are dropped.
// Outer-scope provenance is a contract violation and fatal.
func FilterRequirement(kind RequirementKind, source RequirementSource) FilterAction {
	switch source {
	case SourceExplicit:
		return FilterKeep
	case SourceTrait:
		if kind == RequirementWitnessMarker {
			return FilterKeep
		}

		return FilterDrop
	case SourceRedundant, SourceInferred:
		return FilterDrop
	case SourceOuterScope:
		return FilterFatal
	default:
		return FilterFatal
	}
}
