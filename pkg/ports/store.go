package ports

import (
	"context"
)

// PositionStore defines the interface for persisting the pathway position of a call.
// Implementations only need per-operation safety; read-modify-write atomicity is
// provided by position.Manager.
type PositionStore interface {
	// Load returns the stored index for a call.
	// Returns domain.ErrCallNotFound if the call has never been saved.
	Load(ctx context.Context, callID string) (int, error)

	// Save stores the index for a call.
	Save(ctx context.Context, callID string, index int) error

	// Delete removes the stored index. Deleting an unknown call is not an error.
	Delete(ctx context.Context, callID string) error

	// List returns the known call identifiers.
	List(ctx context.Context) ([]string, error)
}

// Advancer is implemented by stores that can atomically advance a position on their own
// (e.g. with a server-side script). It returns the index observed before the advance.
type Advancer interface {
	Advance(ctx context.Context, callID string, n int) (int, error)
}
