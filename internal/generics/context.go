package generics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	semver "github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/orizon-lang/orizon-generics/internal/errors"
	"github.com/orizon-lang/orizon-generics/internal/types"
)

// Context owns one compilation unit's accumulated signature state: the type
// interner, the signature interning table, and the minimization cache.
// Signatures, their canonical forms, and their minimized forms live as long
// as the context that produced them.
//
// A context is safe for concurrent use. Cache lookups take a read lock;
// inserts double-check under the write lock; minimizations for the same key
// are collapsed so racing goroutines share one computation.
type Context struct {
	id    uuid.UUID
	types *types.Interner

	mu         sync.RWMutex
	signatures map[string]*GenericSignature
	minimized  map[minimizedKey]*GenericSignature

	flight singleflight.Group
}

// minimizedKey identifies one minimization result: the canonical signature
// it was derived from and the output module it was minimized for.
type minimizedKey struct {
	canonical *GenericSignature
	module    string
}

// NewContext creates an empty compilation context.
func NewContext() *Context {
	return &Context{
		id:         uuid.New(),
		types:      types.NewInterner(),
		signatures: make(map[string]*GenericSignature),
		minimized:  make(map[minimizedKey]*GenericSignature),
	}
}

// ID returns the context's opaque identity.
func (c *Context) ID() uuid.UUID {
	return c.id
}

// Types returns the context's type interner.
func (c *Context) Types() *types.Interner {
	return c.types
}

// NewSignature interns a generic signature. Structurally equal inputs return
// the identical signature. The parameter list must hold only generic
// parameters, and parameters and requirements must not both be empty.
func (c *Context) NewSignature(params []*types.Type, requirements []Requirement) *GenericSignature {
	if len(params) == 0 && len(requirements) == 0 {
		panic(errors.EmptySignature())
	}

	for _, p := range params {
		if p.Kind != types.TypeKindGenericParam {
			panic(errors.NonParameterInParamList(p.Kind.String()))
		}
	}

	return c.internSignature(params, requirements)
}

// internSignature returns the pooled signature for the given content,
// building one on first use.
func (c *Context) internSignature(params []*types.Type, requirements []Requirement) *GenericSignature {
	probe := &GenericSignature{params: params, requirements: requirements}
	key := probe.Key()

	c.mu.RLock()
	if pooled, exists := c.signatures[key]; exists {
		c.mu.RUnlock()

		return pooled
	}
	c.mu.RUnlock()

	fresh := &GenericSignature{
		params:       append([]*types.Type(nil), params...),
		requirements: append([]Requirement(nil), requirements...),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if pooled, exists := c.signatures[key]; exists {
		return pooled
	}

	c.signatures[key] = fresh

	return fresh
}

// lookupMinimized consults the minimization cache.
func (c *Context) lookupMinimized(key minimizedKey) (*GenericSignature, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sig, exists := c.minimized[key]

	return sig, exists
}

// storeMinimized inserts a minimization result, keeping an entry another
// goroutine won the race for. Both computed values are structurally equal,
// so either pointer is a correct answer; returning the stored one keeps the
// cache's identity guarantee.
func (c *Context) storeMinimized(key minimizedKey, sig *GenericSignature) *GenericSignature {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pooled, exists := c.minimized[key]; exists {
		return pooled
	}

	c.minimized[key] = sig

	return sig
}

// Module is an output context for minimization: the module a signature is
// encoded for. Modules see different slices of the trait universe depending
// on the versions they build against, so minimization results are cached per
// module.
type Module struct {
	// Name is the module's path.
	Name string

	// Version is the module's own version.
	Version *semver.Version

	// Deps records the versions of the modules this module builds against.
	Deps map[string]*semver.Version
}

// NewModule creates an output module from a name and a semantic version.
func NewModule(name, version string) (*Module, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("module %s: invalid version %q: %w", name, version, err)
	}

	return &Module{Name: name, Version: v, Deps: make(map[string]*semver.Version)}, nil
}

// AddDep records the version of a module this module builds against.
func (m *Module) AddDep(name, version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("module %s: invalid dep %s@%q: %w", m.Name, name, version, err)
	}

	m.Deps[name] = v

	return nil
}

// Sees reports whether the trait is visible from this module: the version of
// the trait's defining module that this module builds against must be at
// least the version that introduced the trait. Traits with no recorded
// introduction, and modules with no recorded version for the defining
// module, are visible.
func (m *Module) Sees(trait *types.TraitRef) bool {
	if trait.Introduced == nil {
		return true
	}

	available := m.Version
	if trait.ModulePath != m.Name {
		available = m.Deps[trait.ModulePath]
	}

	if available == nil {
		return true
	}

	return !available.LessThan(trait.Introduced)
}

// CacheKey returns the module's identity as a minimization-cache key. Trait
// visibility depends on the dependency versions the module builds against,
// so the key covers name, version, and the sorted dependency set; modules
// differing only in a dependency version get distinct cache entries.
func (m *Module) CacheKey() string {
	var sb strings.Builder

	sb.WriteString(m.Name)

	if m.Version != nil {
		sb.WriteByte('@')
		sb.WriteString(m.Version.String())
	}

	names := make([]string, 0, len(m.Deps))
	for name := range m.Deps {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		sb.WriteByte(';')
		sb.WriteString(name)
		sb.WriteByte('@')
		sb.WriteString(m.Deps[name].String())
	}

	return sb.String()
}

// String returns the module's human-readable identity.
func (m *Module) String() string {
	if m.Version == nil {
		return m.Name
	}

	return m.Name + "@" + m.Version.String()
}
