package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/position"
	"github.com/aretw0/pathway/pkg/render"
)

// Engine is the pathway state machine. For every turn it picks the system prompt
// of the call's current step and decides whether the call moves on.
type Engine struct {
	catalog    *domain.Catalog
	positions  *position.Manager
	classifier ports.Classifier
	renderer   *render.Renderer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRenderer replaces the default placeholder renderer.
func WithRenderer(r *render.Renderer) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.renderer = r
		}
	}
}

// NewEngine creates a new engine with dependencies.
func NewEngine(catalog *domain.Catalog, positions *position.Manager, classifier ports.Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:    catalog,
		positions:  positions,
		classifier: classifier,
		renderer:   render.New(),
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the pathway the engine runs.
func (e *Engine) Catalog() *domain.Catalog {
	return e.catalog
}

// Positions returns the position manager.
func (e *Engine) Positions() *position.Manager {
	return e.positions
}

// Validate checks the fields a turn cannot do without.
func Validate(turn domain.Turn) error {
	if turn.CallID == "" {
		return fmt.Errorf("%w: missing call id", domain.ErrValidation)
	}
	if len(turn.Messages) == 0 {
		return fmt.Errorf("%w: missing messages", domain.ErrValidation)
	}
	return nil
}

// Decide evaluates a turn against the call's current step.
//
// Ungated steps always proceed. Gated steps proceed only if the classifier answers
// yes; a negative answer or a classifier failure rejects the turn, keeping the call
// on the same step and using the step's error prompt. Proceeding from the last
// step wraps to the first.
//
// Validation and persistence failures are returned as errors. Classifier failures
// are not: they are reported on the Decision.
func (e *Engine) Decide(ctx context.Context, turn domain.Turn) (*domain.Decision, error) {
	if err := Validate(turn); err != nil {
		return nil, err
	}
	last, _ := turn.LastMessage()

	d := &domain.Decision{CallID: turn.CallID}

	index, next, err := e.positions.Transition(ctx, turn.CallID, e.catalog.Len(), func(ctx context.Context, i int) (bool, error) {
		step, err := e.catalog.At(i)
		if err != nil {
			return false, err
		}

		// The next prompt is rendered before we know whether it will be used.
		prompt := e.renderer.Render(step.NextPrompt(), turn.Variables)

		gated, ok := step.(domain.GatedStep)
		if !ok {
			d.Outcome = domain.OutcomeProceed
			d.SystemPrompt = prompt
			return true, nil
		}

		d.Gated = true
		if e.classify(ctx, turn, i, gated, last.Content, d) {
			d.Outcome = domain.OutcomeProceed
			d.SystemPrompt = prompt
			return true, nil
		}

		d.Outcome = domain.OutcomeReject
		d.SystemPrompt = e.renderer.Render(gated.ErrorPrompt(), turn.Variables)
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	d.Index = index
	d.NextIndex = next
	d.Messages = []domain.Message{
		{Role: domain.RoleSystem, Content: d.SystemPrompt},
		{Role: domain.RoleUser, Content: last.Content},
	}

	e.logger.Info("Turn decided",
		"call_id", d.CallID,
		"step", d.Index,
		"next_step", d.NextIndex,
		"gated", d.Gated,
		"outcome", d.Outcome,
	)
	if e.hooks.OnDecision != nil {
		e.hooks.OnDecision(ctx, &domain.DecisionEvent{
			Timestamp: e.now(),
			CallID:    d.CallID,
			Index:     d.Index,
			NextIndex: d.NextIndex,
			Gated:     d.Gated,
			Outcome:   d.Outcome,
		})
	}

	return d, nil
}

// classify runs the step's check. Failures count as a negative answer.
func (e *Engine) classify(ctx context.Context, turn domain.Turn, index int, step domain.GatedStep, userMessage string, d *domain.Decision) bool {
	var assistantContext string
	if prev, ok := turn.PreviousMessage(); ok {
		assistantContext = prev.Content
	}

	var (
		met bool
		err error
	)
	if e.classifier == nil {
		err = fmt.Errorf("%w: no classifier configured", domain.ErrClassifier)
	} else {
		met, err = e.classifier.Classify(ctx, step.Check, assistantContext, userMessage)
	}
	if err == nil {
		return met
	}

	d.ClassifierErr = err
	e.logger.Warn("Classifier failed, taking the error branch",
		"call_id", turn.CallID,
		"step", index,
		"err", err,
	)
	if e.hooks.OnClassifierError != nil {
		e.hooks.OnClassifierError(ctx, &domain.ClassifierEvent{
			Timestamp: e.now(),
			CallID:    turn.CallID,
			Index:     index,
			Err:       err,
		})
	}
	return false
}
