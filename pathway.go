package pathway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/internal/runtime"
	httpAdapter "github.com/aretw0/pathway/pkg/adapters/http"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/catalog"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/position"
	"github.com/aretw0/pathway/pkg/render"
)

// ErrNoUpstream is returned by Handler when no upstream chat model was configured.
var ErrNoUpstream = errors.New("no upstream configured")

// Proxy is the high-level entry point for the pathway library.
// It wires the catalog, the position store and the classifier into the runtime
// and can expose them as an HTTP handler.
type Proxy struct {
	runtime    *runtime.Engine
	catalog    *domain.Catalog
	store      ports.PositionStore
	locker     ports.DistributedLocker
	classifier ports.Classifier
	upstream   httpAdapter.Upstream
	renderer   *render.Renderer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	Name       string
}

// Option defines a functional option for configuring the Proxy.
type Option func(*Proxy)

// WithCatalog injects an already built catalog, bypassing the pathway file.
func WithCatalog(c *domain.Catalog) Option {
	return func(p *Proxy) {
		p.catalog = c
	}
}

// WithStore sets the position store. The default is a volatile in-memory store.
func WithStore(s ports.PositionStore) Option {
	return func(p *Proxy) {
		p.store = s
	}
}

// WithLocker serializes turns of the same call across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(p *Proxy) {
		p.locker = l
	}
}

// WithClassifier sets the classifier used by gated steps.
// Without one, every gated step takes its error branch.
func WithClassifier(c ports.Classifier) Option {
	return func(p *Proxy) {
		p.classifier = c
	}
}

// WithUpstream sets the chat model rewritten requests are sent to.
func WithUpstream(u httpAdapter.Upstream) Option {
	return func(p *Proxy) {
		p.upstream = u
	}
}

// WithRenderer replaces the default placeholder set.
func WithRenderer(r *render.Renderer) Option {
	return func(p *Proxy) {
		p.renderer = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Proxy) {
		p.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// New initializes a Proxy.
// By default the pathway is loaded from pathwayFile; with WithCatalog the path
// may be empty and is only used as a label.
func New(pathwayFile string, opts ...Option) (*Proxy, error) {
	p := &Proxy{}
	for _, opt := range opts {
		opt(p)
	}

	if p.catalog == nil {
		if pathwayFile == "" {
			return nil, fmt.Errorf("pathwayFile is required when no catalog is provided")
		}
		c, err := catalog.LoadFile(pathwayFile)
		if err != nil {
			return nil, err
		}
		p.catalog = c
	}
	if pathwayFile != "" {
		p.Name = filepath.Base(pathwayFile)
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.Name != "" {
		p.logger = p.logger.With("pathway", p.Name)
	}
	if p.store == nil {
		p.store = memory.NewStore()
	}
	if p.classifier == nil && hasGatedSteps(p.catalog) {
		p.logger.Warn("No classifier configured, gated steps will always take their error branch")
	}

	managerOpts := []position.Option{position.WithLogger(p.logger)}
	if p.locker != nil {
		managerOpts = append(managerOpts, position.WithLocker(p.locker))
	}
	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(p.hooks),
		runtime.WithLogger(p.logger),
	}
	if p.renderer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithRenderer(p.renderer))
	}

	p.runtime = runtime.NewEngine(
		p.catalog,
		position.NewManager(p.store, managerOpts...),
		p.classifier,
		runtimeOpts...,
	)
	return p, nil
}

// Decide evaluates one turn: it picks the system prompt and moves the call's position.
func (p *Proxy) Decide(ctx context.Context, turn domain.Turn) (*domain.Decision, error) {
	return p.runtime.Decide(ctx, turn)
}

// Position returns the step the call is on. Unseen calls are on step 0.
func (p *Proxy) Position(ctx context.Context, callID string) (int, error) {
	return p.runtime.Positions().Read(ctx, callID)
}

// Reset sends a call back to the first step.
func (p *Proxy) Reset(ctx context.Context, callID string) error {
	return p.runtime.Positions().Reset(ctx, callID)
}

// Catalog returns the loaded pathway.
func (p *Proxy) Catalog() *domain.Catalog {
	return p.catalog
}

// Store returns the position store.
func (p *Proxy) Store() ports.PositionStore {
	return p.store
}

// Handler exposes the proxy as an OpenAI-compatible chat completions endpoint.
func (p *Proxy) Handler(opts ...httpAdapter.Option) (http.Handler, error) {
	if p.upstream == nil {
		return nil, ErrNoUpstream
	}
	base := []httpAdapter.Option{
		httpAdapter.WithLogger(p.logger),
		httpAdapter.WithInfo(map[string]any{
			"version": Version(),
			"steps":   p.catalog.Len(),
		}),
	}
	return httpAdapter.NewHandler(p, p.upstream, append(base, opts...)...), nil
}

func hasGatedSteps(c *domain.Catalog) bool {
	for _, s := range c.Steps() {
		if _, ok := s.(domain.GatedStep); ok {
			return true
		}
	}
	return false
}
