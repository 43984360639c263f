package recipes

import (
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Registry maps ecosystems to recipes. It is read-only after construction.
type Registry struct {
	recipes  map[domain.Ecosystem]application.Recipe
	order    []domain.Ecosystem
	fallback application.Recipe
}

// RegistryOption configures the recipe registry.
type RegistryOption func(*Registry)

// WithRecipe registers a recipe, replacing any recipe of the same ecosystem.
func WithRecipe(recipe application.Recipe) RegistryOption {
	return func(r *Registry) {
		r.add(recipe)
	}
}

// WithFallback sets the recipe used when no ecosystem matches.
func WithFallback(recipe application.Recipe) RegistryOption {
	return func(r *Registry) {
		r.add(recipe)
		r.fallback = recipe
	}
}

// NewRegistry creates a registry with all built-in recipes.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{recipes: make(map[domain.Ecosystem]application.Recipe)}
	for _, recipe := range builtins() {
		r.add(recipe)
	}
	r.fallback = r.recipes[domain.EcosystemMake]

	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return NewRegistry() })

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	return defaultRegistry()
}

func builtins() []application.Recipe {
	return []application.Recipe{
		DotNet{},
		Elixir{},
		Golang{},
		Haskell{},
		Java{},
		JavaScript{},
		Julia{},
		Just{},
		Make{},
		Meltano{},
		PHP{},
		Python{},
		Ruby{},
		Rust{},
		Task{},
	}
}

func (r *Registry) add(recipe application.Recipe) {
	eco := recipe.Ecosystem()
	if _, ok := r.recipes[eco]; !ok {
		r.order = append(r.order, eco)
		sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	}
	r.recipes[eco] = recipe
}

// Lookup returns the recipe registered for an ecosystem.
func (r *Registry) Lookup(ecosystem domain.Ecosystem) (application.Recipe, error) {
	recipe, ok := r.recipes[ecosystem]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEcosystem, ecosystem)
	}
	return recipe, nil
}

// Fallback returns the Make recipe unless replaced with WithFallback.
func (r *Registry) Fallback() application.Recipe {
	return r.fallback
}

// Ecosystems returns all registered ecosystems, alphabetically.
func (r *Registry) Ecosystems() []domain.Ecosystem {
	return append([]domain.Ecosystem(nil), r.order...)
}
