// Package target consumes the buildable-unit dump produced by the build
// system. Dependency resolution happens upstream; this package only loads,
// filters and orders what it is given.
package target

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Target is one buildable unit from the dump.
type Target struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Graph holds the loaded target list with name lookup.
type Graph struct {
	targets map[string]Target
	order   []string
}

// dump matches the on-disk JSON shape: {"targets": [...]}.
type dump struct {
	Targets []Target `json:"targets"`
}

// Load reads a target dump file. Both the object form {"targets": [...]} and
// a bare array are accepted.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target dump: %w", err)
	}
	return Parse(data)
}

// Parse decodes a target dump from raw JSON.
func Parse(data []byte) (*Graph, error) {
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		// Fall back to a bare array.
		var list []Target
		if arrErr := json.Unmarshal(data, &list); arrErr != nil {
			return nil, fmt.Errorf("decode target dump: %w", err)
		}
		d.Targets = list
	}

	g := &Graph{targets: make(map[string]Target, len(d.Targets))}
	for _, t := range d.Targets {
		if t.Name == "" {
			continue
		}
		if _, exists := g.targets[t.Name]; exists {
			continue
		}
		g.targets[t.Name] = t
		g.order = append(g.order, t.Name)
	}
	sort.Strings(g.order)
	return g, nil
}

// Get returns the named target.
func (g *Graph) Get(name string) (Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// All returns every target in deterministic name order.
func (g *Graph) All() []Target {
	out := make([]Target, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.targets[name])
	}
	return out
}

// FilterKinds returns targets whose kind matches any of kinds
// (case-insensitive). An empty filter returns everything.
func (g *Graph) FilterKinds(kinds []string) []Target {
	if len(kinds) == 0 {
		return g.All()
	}
	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[strings.ToLower(k)] = struct{}{}
	}

	var out []Target
	for _, t := range g.All() {
		if _, ok := want[strings.ToLower(t.Kind)]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Closure returns the named targets plus their transitive dependencies in
// deterministic name order. Unknown dependency names are ignored and cycles
// terminate naturally.
func (g *Graph) Closure(names ...string) []Target {
	seen := make(map[string]struct{})
	var visit func(name string)
	visit = func(name string) {
		if _, done := seen[name]; done {
			return
		}
		t, ok := g.targets[name]
		if !ok {
			return
		}
		seen[name] = struct{}{}
		for _, dep := range t.Dependencies {
			visit(dep)
		}
	}
	for _, name := range names {
		visit(name)
	}

	var out []Target
	for _, name := range g.order {
		if _, ok := seen[name]; ok {
			out = append(out, g.targets[name])
		}
	}
	return out
}
