package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	semver "github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/orizon-generics/internal/generics"
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// orizon-sig dumps generic signatures from YAML fixture files: the written
// form, the canonical form with its fingerprint, and the minimized
// requirement set for a chosen output module.
// Flags:
//
//	-module   output module name (default "main").
//	-version  output module version (default "1.0.0").
//	-deps     versions the output module builds against, "name@ver,...".
//	-watch    keep running and re-dump fixtures when they change.
//	-no-color disable colored output even on a terminal.
func main() {
	var (
		moduleName    string
		moduleVersion string
		deps          string
		watch         bool
		noColor       bool
	)

	flag.StringVar(&moduleName, "module", "main", "output module name")
	flag.StringVar(&moduleVersion, "version", "1.0.0", "output module version")
	flag.StringVar(&deps, "deps", "", "dependency versions as name@version, comma separated")
	flag.BoolVar(&watch, "watch", false, "re-dump fixtures when they change")
	flag.BoolVar(&noColor, "no-color", false, "disable colored output")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: orizon-sig [flags] fixture.yaml ...")
		os.Exit(2)
	}

	mod, err := generics.NewModule(moduleName, moduleVersion)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := addDeps(mod, deps); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	color := !noColor && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	out := &printer{color: color}

	dumpAll := func() {
		for _, path := range flag.Args() {
			if err := dumpFile(path, mod, out); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)

				if !watch {
					os.Exit(1)
				}
			}
		}
	}

	dumpAll()

	if !watch {
		return
	}

	if err := watchFiles(flag.Args(), dumpAll); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addDeps parses the -deps flag into the module's dependency versions.
func addDeps(mod *generics.Module, deps string) error {
	if deps == "" {
		return nil
	}

	for _, entry := range strings.Split(deps, ",") {
		name, version, ok := strings.Cut(strings.TrimSpace(entry), "@")
		if !ok {
			return fmt.Errorf("bad -deps entry %q, want name@version", entry)
		}

		if err := mod.AddDep(name, version); err != nil {
			return err
		}
	}

	return nil
}

// watchFiles re-runs dump whenever a fixture file is written.
func watchFiles(paths []string, dump func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, path := range paths {
		if err := w.Add(path); err != nil {
			return err
		}
	}

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				dump()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// dumpFile loads one fixture file and prints every signature in it.
func dumpFile(path string, mod *generics.Module, p *printer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fixture fixtureFile
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	traits, err := fixture.buildTraits()
	if err != nil {
		return err
	}

	ctx := generics.NewContext()
	enum := generics.NewSignatureEnumerator(ctx.Types())

	for _, spec := range fixture.Signatures {
		sig, err := spec.build(ctx, traits)
		if err != nil {
			return fmt.Errorf("signature %s: %w", spec.Name, err)
		}

		canonical := ctx.Canonicalize(sig)
		minimized := ctx.MinimizeSignature(sig, mod, enum)

		p.heading(spec.Name)
		p.field("signature", sig.String())
		p.field("canonical", fmt.Sprintf("%s  [%016x]", canonical.String(), canonical.Fingerprint()))
		p.field("minimized", fmt.Sprintf("for %s", mod))

		for _, r := range minimized.Requirements() {
			p.requirement(r.String())
		}
	}

	return nil
}

// fixtureFile is the YAML schema read by orizon-sig.
type fixtureFile struct {
	Traits     []traitSpec     `yaml:"traits"`
	Signatures []signatureSpec `yaml:"signatures"`
}

type traitSpec struct {
	Name       string   `yaml:"name"`
	Module     string   `yaml:"module"`
	Introduced string   `yaml:"introduced"`
	Inherits   []string `yaml:"inherits"`
}

type signatureSpec struct {
	Name         string            `yaml:"name"`
	Params       []paramSpec       `yaml:"params"`
	Requirements []requirementSpec `yaml:"requirements"`
}

type paramSpec struct {
	Depth uint32 `yaml:"depth"`
	Index uint32 `yaml:"index"`
}

type requirementSpec struct {
	Kind       string `yaml:"kind"`
	Subject    string `yaml:"subject"`
	Trait      string `yaml:"trait"`
	Superclass string `yaml:"superclass"`
	Type       string `yaml:"type"`
	Concrete   string `yaml:"concrete"`
}

// buildTraits resolves the fixture's trait declarations, including
// inheritance links, which may name traits in any order.
func (f *fixtureFile) buildTraits() (map[string]*types.TraitRef, error) {
	traits := make(map[string]*types.TraitRef, len(f.Traits))

	for _, spec := range f.Traits {
		trait := types.NewTraitRef(spec.Module, spec.Name)

		if spec.Introduced != "" {
			v, err := semver.NewVersion(spec.Introduced)
			if err != nil {
				return nil, fmt.Errorf("trait %s: bad introduced version %q: %w", spec.Name, spec.Introduced, err)
			}

			trait.Introduced = v
		}

		traits[trait.Key()] = trait

		// Bare names work when unambiguous.
		if _, dup := traits[spec.Name]; !dup {
			traits[spec.Name] = trait
		}
	}

	for _, spec := range f.Traits {
		trait := traits[spec.Module+"."+spec.Name]

		for _, parent := range spec.Inherits {
			inherited, exists := traits[parent]
			if !exists {
				return nil, fmt.Errorf("trait %s inherits unknown trait %q", spec.Name, parent)
			}

			trait.Inherits = append(trait.Inherits, inherited)
		}
	}

	return traits, nil
}

// build assembles a signature from its fixture spec.
func (s *signatureSpec) build(ctx *generics.Context, traits map[string]*types.TraitRef) (*generics.GenericSignature, error) {
	params := make([]*types.Type, len(s.Params))
	for i, p := range s.Params {
		params[i] = types.NewGenericParam(p.Depth, p.Index)
	}

	reqs := make([]generics.Requirement, 0, len(s.Requirements))

	for _, spec := range s.Requirements {
		subject, err := parseTypeRef(spec.Subject, traits)
		if err != nil {
			return nil, err
		}

		switch spec.Kind {
		case "conformance":
			var bound *types.Type

			switch {
			case spec.Trait != "":
				trait, exists := traits[spec.Trait]
				if !exists {
					return nil, fmt.Errorf("unknown trait %q", spec.Trait)
				}

				bound = types.NewTraitExistential(trait)
			case spec.Superclass != "":
				bound = types.NewConcrete(spec.Superclass)
			default:
				return nil, fmt.Errorf("conformance on %s needs a trait or superclass", spec.Subject)
			}

			reqs = append(reqs, generics.Requirement{
				Kind:   generics.RequirementConformance,
				First:  subject,
				Second: bound,
			})

		case "sametype":
			var second *types.Type

			switch {
			case spec.Concrete != "":
				second = types.NewConcrete(spec.Concrete)
			case spec.Type != "":
				second, err = parseTypeRef(spec.Type, traits)
				if err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("sametype on %s needs a type or concrete", spec.Subject)
			}

			reqs = append(reqs, generics.Requirement{
				Kind:   generics.RequirementSameType,
				First:  subject,
				Second: second,
			})

		default:
			return nil, fmt.Errorf("unknown requirement kind %q", spec.Kind)
		}
	}

	return ctx.NewSignature(params, reqs), nil
}

// parseTypeRef parses a dependent-type path: "depth.index" optionally
// followed by "/Trait.AssocName" segments, e.g. "0.0/Sequence.Element".
func parseTypeRef(ref string, traits map[string]*types.TraitRef) (*types.Type, error) {
	segments := strings.Split(ref, "/")

	depth, index, ok := strings.Cut(segments[0], ".")
	if !ok {
		return nil, fmt.Errorf("bad type ref %q, want depth.index", ref)
	}

	d, err := strconv.ParseUint(depth, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad depth in %q: %w", ref, err)
	}

	i, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("bad index in %q: %w", ref, err)
	}

	ty := types.NewGenericParam(uint32(d), uint32(i))

	for _, segment := range segments[1:] {
		traitName, assocName, ok := strings.Cut(segment, ".")
		if !ok {
			return nil, fmt.Errorf("bad member segment %q in %q, want Trait.Name", segment, ref)
		}

		trait, exists := traits[traitName]
		if !exists {
			return nil, fmt.Errorf("unknown trait %q in %q", traitName, ref)
		}

		ty = types.NewDependentMember(ty, trait, assocName)
	}

	return ty, nil
}

// printer writes the dump, with ANSI color when stdout is a terminal.
type printer struct {
	color bool
}

func (p *printer) heading(name string) {
	if p.color {
		fmt.Printf("\x1b[1;36m== %s ==\x1b[0m\n", name)
	} else {
		fmt.Printf("== %s ==\n", name)
	}
}

func (p *printer) field(label, value string) {
	if p.color {
		fmt.Printf("  \x1b[32m%-10s\x1b[0m %s\n", label, value)
	} else {
		fmt.Printf("  %-10s %s\n", label, value)
	}
}

func (p *printer) requirement(text string) {
	fmt.Printf("    %s\n", text)
}
