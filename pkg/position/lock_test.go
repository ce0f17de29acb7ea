package position

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/pathway/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		cid := fmt.Sprintf("call-%d", i)
		_, _ = mgr.Advance(ctx, cid, 3)
		_ = mgr.Reset(ctx, cid)
	}

	lockCount := len(mgr.locks)
	t.Logf("Calls Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Reset", lockCount)
	}
}
