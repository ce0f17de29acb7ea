// Package middleware wraps position stores with cross-cutting behavior.
package middleware

import "github.com/aretw0/pathway/pkg/ports"

// Middleware allows wrapping a PositionStore to add behavior.
type Middleware func(ports.PositionStore) ports.PositionStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.PositionStore, mws ...Middleware) ports.PositionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
