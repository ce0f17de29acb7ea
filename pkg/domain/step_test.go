package domain_test

import (
	"testing"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	_, err := domain.NewCatalog()
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	_, err = domain.NewCatalog(domain.UngatedStep{})
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	_, err = domain.NewCatalog(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	_, err = domain.NewCatalog(domain.UngatedStep{Next: "a"}, domain.GatedStep{Next: " \n\t", Check: "c"})
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog, "A blank next prompt is empty")

	steps := []domain.Step{
		domain.UngatedStep{Next: "a"},
		domain.GatedStep{Next: "b"},
	}
	c, err := domain.NewCatalog(steps...)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	second, err := c.At(1)
	require.NoError(t, err)
	assert.Equal(t, domain.UngatedStep{Next: "b"}, second, "A gated step without a check is ungated")
	assert.IsType(t, domain.GatedStep{}, steps[1], "Input slice must not be modified")

	_, err = c.At(2)
	assert.Error(t, err)
	_, err = c.At(-1)
	assert.Error(t, err)
}

func TestCatalog_Following(t *testing.T) {
	c, err := domain.NewCatalog(
		domain.UngatedStep{Next: "a"},
		domain.UngatedStep{Next: "b"},
		domain.UngatedStep{Next: "c"},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Following(0))
	assert.Equal(t, 2, c.Following(1))
	assert.Equal(t, 0, c.Following(2))
}

func TestGatedStep_ErrorPrompt(t *testing.T) {
	assert.Equal(t, "retry", domain.GatedStep{Error: "retry"}.ErrorPrompt())
	assert.Equal(t, domain.DefaultErrorPrompt, domain.GatedStep{}.ErrorPrompt())
}

func TestTurn_Messages(t *testing.T) {
	turn := domain.Turn{Messages: []domain.Message{
		{Role: domain.RoleAssistant, Content: "What is your email?"},
		{Role: domain.RoleUser, Content: "ann@acme.test"},
	}}

	last, ok := turn.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "ann@acme.test", last.Content)

	prev, ok := turn.PreviousMessage()
	require.True(t, ok)
	assert.Equal(t, "What is your email?", prev.Content)

	_, ok = domain.Turn{Messages: turn.Messages[1:]}.PreviousMessage()
	assert.False(t, ok)
	_, ok = domain.Turn{}.LastMessage()
	assert.False(t, ok)
}
