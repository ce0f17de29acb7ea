package middleware

import (
	"context"
	"time"

	"github.com/aretw0/pathway/pkg/ports"
)

// Store operation names reported to observers.
const (
	OpLoad    = "load"
	OpSave    = "save"
	OpAdvance = "advance"
	OpDelete  = "delete"
	OpList    = "list"
)

// Observer receives the duration and outcome of every store operation.
type Observer func(op string, elapsed time.Duration, err error)

// NewInstrumentMiddleware reports every call on the wrapped store to observe.
// A store that advances atomically keeps doing so once wrapped.
func NewInstrumentMiddleware(observe Observer) Middleware {
	return func(next ports.PositionStore) ports.PositionStore {
		base := &instrumented{next: next, observe: observe}
		if adv, ok := next.(ports.Advancer); ok {
			return &instrumentedAdvancer{instrumented: base, advancer: adv}
		}
		return base
	}
}

type instrumented struct {
	next    ports.PositionStore
	observe Observer
}

func (m *instrumented) report(op string, start time.Time, err error) {
	m.observe(op, time.Since(start), err)
}

func (m *instrumented) Load(ctx context.Context, callID string) (int, error) {
	start := time.Now()
	index, err := m.next.Load(ctx, callID)
	m.report(OpLoad, start, err)
	return index, err
}

func (m *instrumented) Save(ctx context.Context, callID string, index int) error {
	start := time.Now()
	err := m.next.Save(ctx, callID, index)
	m.report(OpSave, start, err)
	return err
}

func (m *instrumented) Delete(ctx context.Context, callID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, callID)
	m.report(OpDelete, start, err)
	return err
}

func (m *instrumented) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.report(OpList, start, err)
	return ids, err
}

type instrumentedAdvancer struct {
	*instrumented
	advancer ports.Advancer
}

func (m *instrumentedAdvancer) Advance(ctx context.Context, callID string, n int) (int, error) {
	start := time.Now()
	index, err := m.advancer.Advance(ctx, callID, n)
	m.report(OpAdvance, start, err)
	return index, err
}
