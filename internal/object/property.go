package object

import (
	"sort"
	"sync"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
)

// PropertyList carries named annotations (a name, the image an object came
// from, physical units) alongside an object. Values are strings or float64.
// It is reference counted like the other parts of an object and safe for
// concurrent use.
type PropertyList struct {
	mu    sync.RWMutex
	props map[string]any
	refs  domain.RefCount
}

// NewPropertyList returns an empty list holding one link.
func NewPropertyList() *PropertyList {
	p := &PropertyList{props: make(map[string]any)}
	p.refs.Init()
	return p
}

// Assign adds a link to p and returns it.
func (p *PropertyList) Assign() *PropertyList {
	if p != nil {
		p.refs.Acquire()
	}
	return p
}

// Free drops a link.
func (p *PropertyList) Free() {
	if p != nil && p.refs.Release() {
		p.mu.Lock()
		p.props = nil
		p.mu.Unlock()
	}
}

// SetString stores a string property.
func (p *PropertyList) SetString(name, v string) { p.set(name, v) }

// SetNumber stores a numeric property.
func (p *PropertyList) SetNumber(name string, v float64) { p.set(name, v) }

func (p *PropertyList) set(name string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.props == nil {
		p.props = make(map[string]any)
	}
	p.props[name] = v
}

// String returns a string property.
func (p *PropertyList) String(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.props[name].(string)
	return s, ok
}

// Number returns a numeric property.
func (p *PropertyList) Number(name string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.props[name].(float64)
	return f, ok
}

// Names returns the property names in sorted order.
func (p *PropertyList) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.props))
	for n := range p.props {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every property.
func (p *PropertyList) Snapshot() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.props))
	for k, v := range p.props {
		out[k] = v
	}
	return out
}
