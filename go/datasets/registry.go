// Package datasets provides the small set of synthetic, in-memory datasets
// the orchestrator trains against. There is no external file acquisition:
// every provider generates its samples deterministically from a fixed RNG
// seed so registry contents never change between runs.
package datasets

import (
	"sort"

	"github.com/muchq/moonbase/go/training"
)

// Registry is a name->provider table, built once at startup and handed
// to training.Manager.
type Registry struct {
	providers map[string]training.DatasetProvider
}

func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]training.DatasetProvider)}
	r.register(newIrisProvider())
	r.register(newXORProvider())
	r.register(newShapesProvider())
	return r
}

func (r *Registry) register(p training.DatasetProvider) {
	r.providers[p.Spec().ID] = p
}

// Providers exposes the underlying map for wiring into a training.Manager.
func (r *Registry) Providers() map[string]training.DatasetProvider {
	return r.providers
}

// List returns every registered dataset's spec, ordered by ID for a
// stable HTTP response.
func (r *Registry) List() []training.DatasetSpec {
	specs := make([]training.DatasetSpec, 0, len(r.providers))
	for _, p := range r.providers {
		specs = append(specs, p.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Get returns the named dataset's spec, or ok=false if unregistered.
func (r *Registry) Get(id string) (training.DatasetSpec, bool) {
	p, ok := r.providers[id]
	if !ok {
		return training.DatasetSpec{}, false
	}
	return p.Spec(), true
}

// Provider returns the named dataset's provider, or ok=false if
// unregistered.
func (r *Registry) Provider(id string) (training.DatasetProvider, bool) {
	p, ok := r.providers[id]
	return p, ok
}
