package generics

import (
	"testing"

	interr "github.com/orizon-lang/orizon-generics/internal/errors"
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// expectInternalError runs fn and asserts it panics with the internal error
// code we expect.
func expectInternalError(t *testing.T, code string, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected internal error %s, got no panic", code)
		}

		ie, ok := r.(*interr.InternalError)
		if !ok {
			t.Fatalf("expected *errors.InternalError, got %T: %v", r, r)
		}

		if ie.Code != code {
			t.Fatalf("expected internal error %s, got %s", code, ie.Code)
		}
	}()

	fn()
}

func conformance(subject, bound *types.Type) Requirement {
	return Requirement{Kind: RequirementConformance, First: subject, Second: bound}
}

func sameType(first, second *types.Type) Requirement {
	return Requirement{Kind: RequirementSameType, First: first, Second: second}
}

// scriptedEnumerator replays a fixed emission stream, for driving the
// minimizer without a live enumerator.
type scriptedEnumerator struct {
	emissions []EmittedRequirement
}

func (s *scriptedEnumerator) EnumerateRequirements(_ *GenericSignature, _ *Module, _ EnumerationPolicy) []EmittedRequirement {
	return s.emissions
}

func mustModule(t *testing.T, name, version string) *Module {
	t.Helper()

	mod, err := NewModule(name, version)
	if err != nil {
		t.Fatalf("NewModule(%s, %s): %v", name, version, err)
	}

	return mod
}
