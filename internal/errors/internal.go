// Package errors provides the internal-error values raised by the
// generic-signature core. Every error here marks an invariant violation, a
// bug in a caller or collaborator rather than bad user input, so callers
// panic with these values rather than returning them.
package errors

import (
	"fmt"
	"runtime"
)

// Category groups internal errors by the invariant they violate.
type Category string

const (
	CategoryProvenance   Category = "PROVENANCE"
	CategoryInvariant    Category = "INVARIANT"
	CategorySubstitution Category = "SUBSTITUTION"
)

// InternalError is a structured invariant-violation report. It records the
// function that raised it so a trapped panic still points at the culprit.
type InternalError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// NewInternalError creates an internal error, capturing the caller.
func NewInternalError(category Category, code, message string, context map[string]interface{}) *InternalError {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"

	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &InternalError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// OuterScopeRequirement reports an outer-scope provenance reaching the
// minimizer. The enumerator must resolve outer requirements before emitting.
func OuterScopeRequirement(kind string) *InternalError {
	return NewInternalError(CategoryProvenance, "OUTER_SCOPE_REQUIREMENT",
		fmt.Sprintf("outer-scope %s requirement reached minimization", kind),
		map[string]interface{}{"kind": kind})
}

// MissingWitnessMarker reports a requirement naming a dependent type before
// its witness marker was seen.
func MissingWitnessMarker(depType string) *InternalError {
	return NewInternalError(CategoryInvariant, "MISSING_WITNESS_MARKER",
		fmt.Sprintf("requirement on %s before its witness marker", depType),
		map[string]interface{}{"type": depType})
}

// DuplicateSuperclassBound reports a second superclass constraint on one
// dependent type; a type has at most one concrete superclass bound.
func DuplicateSuperclassBound(depType, existing, incoming string) *InternalError {
	return NewInternalError(CategoryInvariant, "DUPLICATE_SUPERCLASS_BOUND",
		fmt.Sprintf("second superclass bound %s on %s (already bound to %s)", incoming, depType, existing),
		map[string]interface{}{"type": depType, "existing": existing, "incoming": incoming})
}

// SubstitutionCountMismatch reports a flat replacement list whose length
// does not match the signature's dependent-type list.
func SubstitutionCountMismatch(want, got int) *InternalError {
	return NewInternalError(CategorySubstitution, "SUBSTITUTION_COUNT_MISMATCH",
		fmt.Sprintf("signature has %d dependent types but %d replacements were supplied", want, got),
		map[string]interface{}{"want": want, "got": got})
}

// SubstitutionsWithoutParams reports replacements supplied for a signature
// with no generic parameters.
func SubstitutionsWithoutParams(got int) *InternalError {
	return NewInternalError(CategorySubstitution, "SUBSTITUTIONS_WITHOUT_PARAMS",
		fmt.Sprintf("%d replacements supplied for a signature with no generic parameters", got),
		map[string]interface{}{"got": got})
}

// EmptySignature reports construction of a signature with neither generic
// parameters nor requirements.
func EmptySignature() *InternalError {
	return NewInternalError(CategoryInvariant, "EMPTY_SIGNATURE",
		"a generic signature needs parameters or requirements", nil)
}

// NonParameterInParamList reports a type of the wrong kind in a signature's
// generic-parameter list.
func NonParameterInParamList(got string) *InternalError {
	return NewInternalError(CategoryInvariant, "NON_PARAMETER_IN_PARAM_LIST",
		fmt.Sprintf("generic-parameter list holds a %s type", got),
		map[string]interface{}{"kind": got})
}
