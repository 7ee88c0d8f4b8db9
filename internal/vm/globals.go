package vm

import (
	"sort"
	"sync"
)

// Globals is the global namespace shared by every task of a VM. One mutex
// guards the whole table, so each read or write is atomic and a task's own
// writes become visible to others in the order it issued them.
type Globals struct {
	mu   sync.Mutex
	vars map[string]Value
}

func NewGlobals() *Globals {
	return &Globals{vars: make(map[string]Value)}
}

// Define binds name to v, replacing any previous binding.
func (g *Globals) Define(name string, v Value) {
	g.mu.Lock()
	g.vars[name] = v
	g.mu.Unlock()
}

// Set binds name to v. Assignment to an unknown name creates it.
func (g *Globals) Set(name string, v Value) {
	g.Define(name, v)
}

func (g *Globals) Get(name string) (Value, bool) {
	g.mu.Lock()
	v, ok := g.vars[name]
	g.mu.Unlock()
	return v, ok
}

func (g *Globals) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.vars)
}

// Names returns the bound names in sorted order.
func (g *Globals) Names() []string {
	g.mu.Lock()
	names := make([]string, 0, len(g.vars))
	for name := range g.vars {
		names = append(names, name)
	}
	g.mu.Unlock()
	sort.Strings(names)
	return names
}

// Snapshot copies the table under the lock.
func (g *Globals) Snapshot() map[string]Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]Value, len(g.vars))
	for k, v := range g.vars {
		out[k] = v
	}
	return out
}

// Restore defines every entry of vars, keeping bindings not mentioned there.
func (g *Globals) Restore(vars map[string]Value) {
	g.mu.Lock()
	for k, v := range vars {
		g.vars[k] = v
	}
	g.mu.Unlock()
}
