package generics

import (
	"sync"
	"testing"

	semver "github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/orizon-generics/internal/types"
)

// requireLayout asserts the exact requirement sequence of a signature.
func requireLayout(t *testing.T, sig *GenericSignature, want []string) {
	t.Helper()

	got := sig.Requirements()
	if len(got) != len(want) {
		t.Fatalf("requirement count = %d, want %d: %s", len(got), len(want), sig)
	}

	for i, r := range got {
		if r.String() != want[i] {
			t.Errorf("requirement %d = %q, want %q", i, r.String(), want[i])
		}
	}
}

func TestMinimizeUnconstrainedParam(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	sig := ctx.NewSignature([]*types.Type{types.NewGenericParam(0, 0)}, nil)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{"witness τ0_0"})
}

func TestMinimizeTwoParamsSameType(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Comparable")

	paramT := types.NewGenericParam(0, 0)
	paramU := types.NewGenericParam(0, 1)
	bound := types.NewTraitExistential(trait)

	sig := ctx.NewSignature(
		[]*types.Type{paramT, paramU},
		[]Requirement{
			conformance(paramT, bound),
			conformance(paramU, bound),
			sameType(paramT, paramU),
		},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: any Comparable",
		"witness τ0_1",
		"τ0_1: any Comparable",
		"τ0_0 == τ0_1",
	})
}

func TestMinimizeConcreteSameTypeRHS(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	param := types.NewGenericParam(0, 0)
	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{sameType(param, types.NewConcrete("Int"))},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0 == Int",
	})

	last := minimized.Requirements()[1]
	if last.Second.Kind != types.TypeKindConcrete {
		t.Error("a concrete type in the class must be the right-hand side")
	}
}

func TestMinimizeDropsTraitImpliedConformances(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	base := types.NewTraitRef("core", "Collection")
	derived := types.NewTraitRef("core", "Sequence")
	derived.Inherits = []*types.TraitRef{base}

	param := types.NewGenericParam(0, 0)
	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{conformance(param, types.NewTraitExistential(derived))},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: any Sequence",
	})
}

func TestMinimizeTraitsInCanonicalOrder(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	comparable := types.NewTraitRef("core", "Comparable")
	hashable := types.NewTraitRef("core", "Hashable")

	param := types.NewGenericParam(0, 0)

	// Declared out of canonical order; minimization restores it.
	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{
			conformance(param, types.NewTraitExistential(hashable)),
			conformance(param, types.NewTraitExistential(comparable)),
		},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: any Comparable",
		"τ0_0: any Hashable",
	})
}

func TestMinimizeSuperclassBeforeTraits(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Comparable")
	param := types.NewGenericParam(0, 0)

	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{
			conformance(param, types.NewTraitExistential(trait)),
			conformance(param, types.NewConcrete("Animal")),
		},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: Animal",
		"τ0_0: any Comparable",
	})
}

func TestMinimizeCachesPerContext(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	sig := ctx.NewSignature([]*types.Type{types.NewGenericParam(0, 0)}, nil)

	first := ctx.MinimizeSignature(sig, mod, enum)
	second := ctx.MinimizeSignature(sig, mod, enum)

	if first != second {
		t.Error("repeated minimization must return the cached, identical signature")
	}

	otherMod := mustModule(t, "other", "2.0.0")
	if ctx.MinimizeSignature(sig, otherMod, enum) != first {
		// Distinct cache entries, but structural interning still collapses
		// equal results to one signature.
		t.Error("equal minimization results must intern to one signature")
	}
}

func TestMinimizeIdempotent(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Sequence")
	param := types.NewGenericParam(0, 0)

	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{
			conformance(param, types.NewTraitExistential(trait)),
			sameType(types.NewDependentMember(param, trait, "Element"), types.NewConcrete("Int")),
		},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	if again := ctx.MinimizeSignature(minimized, mod, enum); again != minimized {
		t.Error("minimizing a minimized signature must be the identity")
	}
}

func TestMinimizeDeterministicAcrossSpellings(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Sequence")

	build := func(sugar bool) *GenericSignature {
		param := types.NewGenericParam(0, 0)
		second := types.NewConcrete("Int")

		if sugar {
			second = types.NewAlias("Word", types.NewConcrete("Int"))
		}

		return ctx.NewSignature(
			[]*types.Type{param},
			[]Requirement{
				conformance(param, types.NewTraitExistential(trait)),
				sameType(types.NewDependentMember(param, trait, "Element"), second),
			},
		)
	}

	a := ctx.MinimizeSignature(build(false), mod, enum)
	b := ctx.MinimizeSignature(build(true), mod, enum)

	if a != b {
		t.Error("structurally equal signatures must minimize to identical output")
	}
}

func TestMinimizeMemberTypesSortAfterTheirBase(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Sequence")

	paramT := types.NewGenericParam(0, 0)
	paramU := types.NewGenericParam(0, 1)
	member := types.NewDependentMember(paramT, trait, "Element")

	sig := ctx.NewSignature(
		[]*types.Type{paramT, paramU},
		[]Requirement{sameType(member, paramU)},
	)

	minimized := ctx.MinimizeSignature(sig, mod, enum)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"witness τ0_1",
		"witness τ0_0.Sequence.Element",
		"τ0_1 == τ0_0.Sequence.Element",
	})
}

func TestMinimizeConcurrent(t *testing.T) {
	ctx := NewContext()
	enum := NewSignatureEnumerator(ctx.Types())
	mod := mustModule(t, "main", "1.0.0")

	trait := types.NewTraitRef("core", "Comparable")
	param := types.NewGenericParam(0, 0)

	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{conformance(param, types.NewTraitExistential(trait))},
	)

	const workers = 16

	results := make([]*GenericSignature, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(slot int) {
			defer wg.Done()

			results[slot] = ctx.MinimizeSignature(sig, mod, enum)
		}(i)
	}

	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent minimization must agree on one cached signature")
		}
	}
}

// visibilityEnumerator emits the signature's own conformances as explicit,
// skipping traits the output module does not see.
type visibilityEnumerator struct {
	types *types.Interner
}

func (e *visibilityEnumerator) EnumerateRequirements(sig *GenericSignature, mod *Module, _ EnumerationPolicy) []EmittedRequirement {
	var out []EmittedRequirement

	for _, depTy := range sig.AllDependentTypes() {
		out = append(out, EmittedRequirement{
			Kind:    RequirementWitnessMarker,
			Subject: e.types.Canonicalize(depTy),
			Source:  SourceExplicit,
		})
	}

	for _, r := range sig.Requirements() {
		if r.Kind != RequirementConformance {
			continue
		}

		bound := e.types.Canonicalize(r.Second)
		if bound.Kind == types.TypeKindTrait && mod != nil && !mod.Sees(bound.TraitBound().Trait) {
			continue
		}

		out = append(out, EmittedRequirement{
			Kind:       RequirementConformance,
			Subject:    e.types.Canonicalize(r.First),
			Constraint: bound,
			Source:     SourceExplicit,
		})
	}

	return out
}

func TestMinimizeCacheKeyedByModuleDeps(t *testing.T) {
	ctx := NewContext()
	enum := &visibilityEnumerator{types: ctx.Types()}

	trait := types.NewTraitRef("core", "Comparable")
	trait.Introduced = semver.MustParse("2.0.0")

	param := types.NewGenericParam(0, 0)
	sig := ctx.NewSignature(
		[]*types.Type{param},
		[]Requirement{conformance(param, types.NewTraitExistential(trait))},
	)

	// Same name and version, different dependency versions: the modules see
	// different slices of the trait universe and must not share a cache
	// entry.
	newMod := mustModule(t, "app", "1.0.0")
	if err := newMod.AddDep("core", "2.5.0"); err != nil {
		t.Fatal(err)
	}

	oldMod := mustModule(t, "app", "1.0.0")
	if err := oldMod.AddDep("core", "1.0.0"); err != nil {
		t.Fatal(err)
	}

	first := ctx.MinimizeSignature(sig, newMod, enum)
	requireLayout(t, first, []string{
		"witness τ0_0",
		"τ0_0: any Comparable",
	})

	second := ctx.MinimizeSignature(sig, oldMod, enum)
	requireLayout(t, second, []string{"witness τ0_0"})

	if first == second {
		t.Error("modules with different visibility must not share one minimized signature")
	}
}

func TestMinimizeOuterScopeIsFatal(t *testing.T) {
	ctx := NewContext()
	mod := mustModule(t, "main", "1.0.0")

	param := ctx.Types().Canonicalize(types.NewGenericParam(0, 0))
	trait := types.NewTraitRef("core", "Sequence")
	bound := ctx.Types().Canonicalize(types.NewTraitExistential(trait))

	sig := ctx.NewSignature([]*types.Type{param}, []Requirement{conformance(param, bound)})

	bad := &scriptedEnumerator{emissions: []EmittedRequirement{
		{Kind: RequirementWitnessMarker, Subject: param, Source: SourceExplicit},
		{Kind: RequirementConformance, Subject: param, Constraint: bound, Source: SourceOuterScope},
	}}

	expectInternalError(t, "OUTER_SCOPE_REQUIREMENT", func() {
		ctx.MinimizeSignature(sig, mod, bad)
	})

	// The failed run must not have poisoned the cache: a conforming
	// enumerator still produces the full result.
	good := NewSignatureEnumerator(ctx.Types())

	minimized := ctx.MinimizeSignature(sig, mod, good)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: any Sequence",
	})
}

func TestMinimizeMissingWitnessMarkerIsFatal(t *testing.T) {
	ctx := NewContext()
	mod := mustModule(t, "main", "1.0.0")

	param := ctx.Types().Canonicalize(types.NewGenericParam(0, 0))
	trait := types.NewTraitRef("core", "Sequence")
	bound := ctx.Types().Canonicalize(types.NewTraitExistential(trait))

	sig := ctx.NewSignature([]*types.Type{param}, []Requirement{conformance(param, bound)})

	bad := &scriptedEnumerator{emissions: []EmittedRequirement{
		{Kind: RequirementConformance, Subject: param, Constraint: bound, Source: SourceExplicit},
	}}

	expectInternalError(t, "MISSING_WITNESS_MARKER", func() {
		ctx.MinimizeSignature(sig, mod, bad)
	})
}

func TestMinimizeDuplicateSuperclassIsFatal(t *testing.T) {
	ctx := NewContext()
	mod := mustModule(t, "main", "1.0.0")

	param := ctx.Types().Canonicalize(types.NewGenericParam(0, 0))
	animal := ctx.Types().Canonicalize(types.NewConcrete("Animal"))
	plant := ctx.Types().Canonicalize(types.NewConcrete("Plant"))

	sig := ctx.NewSignature([]*types.Type{param}, []Requirement{conformance(param, animal)})

	bad := &scriptedEnumerator{emissions: []EmittedRequirement{
		{Kind: RequirementWitnessMarker, Subject: param, Source: SourceExplicit},
		{Kind: RequirementConformance, Subject: param, Constraint: animal, Source: SourceExplicit},
		{Kind: RequirementConformance, Subject: param, Constraint: plant, Source: SourceExplicit},
	}}

	expectInternalError(t, "DUPLICATE_SUPERCLASS_BOUND", func() {
		ctx.MinimizeSignature(sig, mod, bad)
	})
}

func TestMinimizeDropsRedundantAndInferred(t *testing.T) {
	ctx := NewContext()
	mod := mustModule(t, "main", "1.0.0")

	param := ctx.Types().Canonicalize(types.NewGenericParam(0, 0))
	comparable := ctx.Types().Canonicalize(types.NewTraitExistential(types.NewTraitRef("core", "Comparable")))
	hashable := ctx.Types().Canonicalize(types.NewTraitExistential(types.NewTraitRef("core", "Hashable")))

	sig := ctx.NewSignature([]*types.Type{param}, []Requirement{conformance(param, comparable)})

	scripted := &scriptedEnumerator{emissions: []EmittedRequirement{
		{Kind: RequirementWitnessMarker, Subject: param, Source: SourceExplicit},
		{Kind: RequirementConformance, Subject: param, Constraint: comparable, Source: SourceExplicit},
		{Kind: RequirementConformance, Subject: param, Constraint: comparable, Source: SourceRedundant},
		{Kind: RequirementConformance, Subject: param, Constraint: hashable, Source: SourceInferred},
	}}

	minimized := ctx.MinimizeSignature(sig, mod, scripted)

	requireLayout(t, minimized, []string{
		"witness τ0_0",
		"τ0_0: any Comparable",
	})
}
