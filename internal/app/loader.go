package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pscheid92/instaplanner/internal/domain"
)

// Renderer produces the response for a route. Full models implement it, and
// so does the generic themed-page renderer.
type Renderer interface {
	Render(ctx context.Context, inst *Instance, route, display, version string) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, inst *Instance, route, display, version string) error

func (f RendererFunc) Render(ctx context.Context, inst *Instance, route, display, version string) error {
	return f(ctx, inst, route, display, version)
}

// Tier says which kind of unit served a route.
type Tier int

const (
	TierNone Tier = iota
	TierFullModel
	TierThemedPage
)

func (t Tier) String() string {
	switch t {
	case TierFullModel:
		return "full_model"
	case TierThemedPage:
		return "themed_page"
	default:
		return "none"
	}
}

// Registry maps route names to full models and themed pages. A route may have
// both; the loader prefers the full model.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Renderer
	pages  map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]Renderer),
		pages:  make(map[string]struct{}),
	}
}

// RegisterModel registers a full model. Registering a route twice replaces
// the earlier model.
func (r *Registry) RegisterModel(route string, model Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[route] = model
}

// RegisterPage registers a route served by the page renderer alone.
func (r *Registry) RegisterPage(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[route] = struct{}{}
}

// RegisterPages calls RegisterPage for each route.
func (r *Registry) RegisterPages(routes ...string) {
	for _, route := range routes {
		r.RegisterPage(route)
	}
}

// Lookup returns the tier that serves route, and the model when the tier is
// TierFullModel.
func (r *Registry) Lookup(route string) (Tier, Renderer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if model, ok := r.models[route]; ok {
		return TierFullModel, model
	}
	if _, ok := r.pages[route]; ok {
		return TierThemedPage, nil
	}
	return TierNone, nil
}

// Routes lists every registered route name, sorted.
func (r *Registry) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.models)+len(r.pages))
	for route := range r.models {
		seen[route] = struct{}{}
	}
	for route := range r.pages {
		seen[route] = struct{}{}
	}

	routes := make([]string, 0, len(seen))
	for route := range seen {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

// LoadObserver is told which tier served each load.
type LoadObserver func(route string, tier Tier)

// ModelLoader resolves a route to a full model, then to a themed page, and
// fails with *domain.RouteNotFoundError when neither exists.
type ModelLoader struct {
	registry *Registry
	page     Renderer
	version  string
	observe  LoadObserver
}

// LoaderOption configures a ModelLoader.
type LoaderOption func(*ModelLoader)

// WithLoadObserver reports the route and tier of every load to fn.
func WithLoadObserver(fn LoadObserver) LoaderOption {
	return func(l *ModelLoader) { l.observe = fn }
}

// NewModelLoader creates a loader. page renders themed pages that have no
// model of their own.
func NewModelLoader(registry *Registry, page Renderer, version string, opts ...LoaderOption) *ModelLoader {
	l := &ModelLoader{
		registry: registry,
		page:     page,
		version:  version,
		observe:  func(string, Tier) {},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load renders route and reports the tier that served it. On a miss nothing
// is rendered and the returned error is a *domain.RouteNotFoundError.
func (l *ModelLoader) Load(ctx context.Context, inst *Instance, route, display string) (Tier, error) {
	tier, model := l.registry.Lookup(route)
	l.observe(route, tier)

	switch tier {
	case TierFullModel:
		if err := model.Render(ctx, inst, route, display, l.version); err != nil {
			return tier, fmt.Errorf("render model %q: %w", route, err)
		}
	case TierThemedPage:
		if err := l.page.Render(ctx, inst, route, display, l.version); err != nil {
			return tier, fmt.Errorf("render page %q: %w", route, err)
		}
	default:
		return TierNone, &domain.RouteNotFoundError{Name: route}
	}
	return tier, nil
}

// Version is the application version handed to every renderer.
func (l *ModelLoader) Version() string {
	return l.version
}
