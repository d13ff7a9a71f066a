// Package dist models the public surface of an installable distribution.
//
// A Distribution bundles named sub-packages. Each sub-package defines
// member symbols (functions, constants, types) and an explicit export
// manifest: the subset of members that external consumers may reference.
// Names outside the manifest are implementation detail, and resolving
// them reports whether the caller hit a private member or a name that
// never existed.
//
// A distribution is built once at startup and sealed with Publish.
// Published distributions are read-only and safe for concurrent readers;
// construction itself is single-threaded.
//
// Example usage:
//
//	d := dist.New("iss4e-toolchain", "0.1.0")
//	units, _ := d.Add("energy_units")
//	units.Define("convert_kwh_to_joules", dist.KindFunction)
//	units.Define("convert_joules_to_kwh", dist.KindFunction)
//	units.Define("_internal_constant", dist.KindConstant)
//	d.Declare("energy_units", "convert_kwh_to_joules", "convert_joules_to_kwh")
//	d.Publish()
package dist

import "fmt"

// Kind classifies a symbol within a sub-package.
type Kind string

const (
	KindFunction Kind = "function"
	KindConstant Kind = "constant"
	KindType     Kind = "type"
)

// Symbol is a single named member of a sub-package. Exported reflects
// manifest membership at the time the symbol was resolved or listed.
type Symbol struct {
	Name     string
	Kind     Kind
	Exported bool
}

// SubPackage is a named grouping of symbols inside a Distribution.
// Members keep insertion order; the export manifest keeps declaration
// order and is always a subset of the members.
type SubPackage struct {
	name     string
	dist     *Distribution
	members  map[string]Kind
	order    []string
	manifest []string
	exported map[string]bool
}

// Name returns the sub-package name.
func (sp *SubPackage) Name() string { return sp.name }

// Define adds a member symbol. Defining an existing name updates its
// kind without changing member order or export status.
func (sp *SubPackage) Define(name string, kind Kind) error {
	if sp.dist.published {
		return ErrPublished
	}
	if _, ok := sp.members[name]; !ok {
		sp.order = append(sp.order, name)
	}
	sp.members[name] = kind
	return nil
}

// Remove drops a member symbol. A removed member also leaves the export
// manifest, preserving the manifest-is-subset-of-members invariant.
func (sp *SubPackage) Remove(name string) error {
	if sp.dist.published {
		return ErrPublished
	}
	if _, ok := sp.members[name]; !ok {
		return &UnknownSymbolError{SubPackage: sp.name, Name: name}
	}
	delete(sp.members, name)
	sp.order = without(sp.order, name)
	if sp.exported[name] {
		delete(sp.exported, name)
		sp.manifest = without(sp.manifest, name)
	}
	return nil
}

// Members returns the member names in definition order.
func (sp *SubPackage) Members() []string {
	out := make([]string, len(sp.order))
	copy(out, sp.order)
	return out
}

func without(names []string, drop string) []string {
	out := names[:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

// Distribution is the top-level installable unit: a name, a version and
// the sub-packages it bundles. It owns all sub-package state.
type Distribution struct {
	name      string
	version   string
	subs      map[string]*SubPackage
	order     []string
	published bool
}

// New creates an empty, unpublished distribution.
func New(name, version string) *Distribution {
	return &Distribution{
		name:    name,
		version: version,
		subs:    make(map[string]*SubPackage),
	}
}

// Name returns the distribution name.
func (d *Distribution) Name() string { return d.name }

// Version returns the distribution version.
func (d *Distribution) Version() string { return d.version }

// Add registers a new sub-package. Adding a name twice returns the
// existing sub-package unchanged.
func (d *Distribution) Add(name string) (*SubPackage, error) {
	if d.published {
		return nil, ErrPublished
	}
	if sp, ok := d.subs[name]; ok {
		return sp, nil
	}
	sp := &SubPackage{
		name:     name,
		dist:     d,
		members:  make(map[string]Kind),
		exported: make(map[string]bool),
	}
	d.subs[name] = sp
	d.order = append(d.order, name)
	return sp, nil
}

// SubPackage looks up a sub-package by name.
func (d *Distribution) SubPackage(name string) (*SubPackage, error) {
	sp, ok := d.subs[name]
	if !ok {
		return nil, &UnknownSubPackageError{SubPackage: name}
	}
	return sp, nil
}

// SubPackages returns the sub-package names in registration order.
func (d *Distribution) SubPackages() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Declare sets the export manifest of a sub-package to exactly the given
// names, in the given order. Any previous manifest is replaced, never
// merged. The call is all-or-nothing: if any name is not a defined
// member, the manifest is left untouched and an *UnknownSymbolError is
// returned.
func (d *Distribution) Declare(subPackage string, names ...string) error {
	if d.published {
		return ErrPublished
	}
	sp, ok := d.subs[subPackage]
	if !ok {
		return &UnknownSubPackageError{SubPackage: subPackage}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := sp.members[n]; !ok {
			return &UnknownSymbolError{SubPackage: subPackage, Name: n}
		}
		if seen[n] {
			return fmt.Errorf("dist: duplicate name %q in declaration for %q", n, subPackage)
		}
		seen[n] = true
	}
	sp.manifest = append([]string(nil), names...)
	sp.exported = seen
	return nil
}

// Resolve looks up a name against the export manifest of a sub-package.
// It returns the symbol when the name is exported, a *NotExportedError
// when the name is a member kept private, and an *UnknownSymbolError
// when no such member exists at all. The distinction tells a caller
// whether they are reaching into internals or chasing a typo.
func (d *Distribution) Resolve(subPackage, name string) (Symbol, error) {
	sp, ok := d.subs[subPackage]
	if !ok {
		return Symbol{}, &UnknownSubPackageError{SubPackage: subPackage}
	}
	kind, ok := sp.members[name]
	if !ok {
		return Symbol{}, &UnknownSymbolError{SubPackage: subPackage, Name: name}
	}
	if !sp.exported[name] {
		return Symbol{}, &NotExportedError{SubPackage: subPackage, Name: name}
	}
	return Symbol{Name: name, Kind: kind, Exported: true}, nil
}

// ListExports returns the declared export names of a sub-package in
// declaration order. The slice is freshly allocated on every call.
func (d *Distribution) ListExports(subPackage string) ([]string, error) {
	sp, ok := d.subs[subPackage]
	if !ok {
		return nil, &UnknownSubPackageError{SubPackage: subPackage}
	}
	out := make([]string, len(sp.manifest))
	copy(out, sp.manifest)
	return out, nil
}

// Publish seals the distribution. Every mutating operation afterwards
// fails with ErrPublished; readers may share the value freely.
func (d *Distribution) Publish() { d.published = true }

// Published reports whether the distribution has been sealed.
func (d *Distribution) Published() bool { return d.published }
