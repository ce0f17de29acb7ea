package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	in := "event: delta\ndata: line one\ndata: line two\n\n: comment\n\ndata: last"

	type ev struct{ name, data string }
	var got []ev
	err := readEvents(strings.NewReader(in), func(name, data string) error {
		got = append(got, ev{name, data})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []ev{
		{"delta", "line one\nline two"},
		{"", "last"},
	}, got)
}
