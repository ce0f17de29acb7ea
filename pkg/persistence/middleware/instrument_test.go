package middleware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/pathway/internal/testutils"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/adapters/redis"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/persistence/middleware"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	ops  []string
	errs []error
}

func (r *recorder) observe(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestInstrumentMiddleware_Contract(t *testing.T) {
	rec := &recorder{}
	store := middleware.Chain(memory.NewStore(), middleware.NewInstrumentMiddleware(rec.observe))

	ports.RunPositionStoreContract(t, store)
	assert.NotEmpty(t, rec.ops)
}

func TestInstrumentMiddleware_Reports(t *testing.T) {
	rec := &recorder{}
	store := middleware.NewInstrumentMiddleware(rec.observe)(memory.NewStore())
	ctx := context.Background()

	_, isAdvancer := store.(ports.Advancer)
	assert.False(t, isAdvancer, "The memory store does not advance atomically")

	require.NoError(t, store.Save(ctx, "c", 1))
	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
	_, err = store.List(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "c"))

	assert.Equal(t, []string{middleware.OpSave, middleware.OpLoad, middleware.OpList, middleware.OpDelete}, rec.ops)
	assert.True(t, errors.Is(rec.errs[1], domain.ErrCallNotFound))
}

func TestInstrumentMiddleware_KeepsAdvancer(t *testing.T) {
	_, client := testutils.NewRedis(t)

	rec := &recorder{}
	store := middleware.NewInstrumentMiddleware(rec.observe)(redis.NewFromClient(client))

	adv, ok := store.(ports.Advancer)
	require.True(t, ok)

	idx, err := adv.Advance(context.Background(), "c", 3)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, []string{middleware.OpAdvance}, rec.ops)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return middleware.NewInstrumentMiddleware(func(op string, _ time.Duration, _ error) {
			order = append(order, name)
		})
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "c", 0))

	// Observers run on the way out, so the inner one reports first.
	assert.Equal(t, []string{"inner", "outer"}, order)
}
