package render

import "fmt"

// Registry maps target names to renderers. Built once, never mutated.
type Registry struct {
	targets map[string]Renderer
	order   []string
}

// NewRegistry builds a registry over the given renderers. A later renderer
// with the same target replaces an earlier one.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{targets: make(map[string]Renderer)}
	for _, rd := range renderers {
		if _, dup := r.targets[rd.Target()]; !dup {
			r.order = append(r.order, rd.Target())
		}
		r.targets[rd.Target()] = rd
	}
	return r
}

// Lookup returns the renderer for a target, or ErrUnknownTarget.
func (r *Registry) Lookup(target string) (Renderer, error) {
	rd, ok := r.targets[target]
	if !ok {
		return nil, fmt.Errorf("target %q: %w", target, ErrUnknownTarget)
	}
	return rd, nil
}

// Targets lists registered target names in registration order.
func (r *Registry) Targets() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
