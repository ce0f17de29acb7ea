package http

import (
	"testing"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseRequest(t *testing.T) {
	body := `{
		"model": "gpt-4o",
		"stream": true,
		"call": {"id": "call-1"},
		"email": "ann@acme.test",
		"customer": {"name": "Ann", "email": "other@acme.test", "company_name": "Acme", "website": "acme.test"},
		"industry": "retail",
		"messages": [
			{"role": "assistant", "content": "What is your email?"},
			{"role": "user", "content": [{"type": "text", "text": "it is"}, {"type": "text", "text": "ann@acme.test"}]}
		]
	}`

	req, err := parseRequest([]byte(body))
	require.NoError(t, err)

	assert.True(t, req.stream)
	assert.Equal(t, "call-1", req.turn.CallID)
	assert.Equal(t, []domain.Message{
		{Role: "assistant", Content: "What is your email?"},
		{Role: "user", Content: "it is\nann@acme.test"},
	}, req.turn.Messages)
	assert.Equal(t, domain.Variables{
		domain.VarCustomerName: "Ann",
		domain.VarEmail:        "ann@acme.test",
		domain.VarCompanyName:  "Acme",
		domain.VarIndustry:     "retail",
		domain.VarWebsite:      "acme.test",
	}, req.turn.Variables)
}

func TestParseRequest_Minimal(t *testing.T) {
	req, err := parseRequest([]byte(`{"messages":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)

	assert.False(t, req.stream)
	assert.Empty(t, req.turn.CallID, "Missing ids are left to the controller to reject")
	assert.Equal(t, "", req.turn.Variables[domain.VarCustomerName])
}

func TestParseRequest_Malformed(t *testing.T) {
	for _, body := range []string{
		``,
		`{"call":`,
		`[1,2]`,
		`"text"`,
		`{"call":{"id":"c"}}`,
		`{"call":{"id":"c"},"messages":"hi"}`,
		`{"call":{"id":"c"},"messages":{"role":"user","content":"hi"}}`,
	} {
		_, err := parseRequest([]byte(body))
		assert.ErrorIs(t, err, domain.ErrValidation, "body %q", body)
	}
}

func TestUpstreamBody(t *testing.T) {
	body := `{"model":"gpt-4o","temperature":0.2,"call":{"id":"c"},"metadata":{"k":1},"phoneNumber":{"n":"+1"},"customer":{"name":"Ann"},"messages":[{"role":"user","content":"a"},{"role":"user","content":"b"}],"tools":[{"type":"function"}]}`
	req, err := parseRequest([]byte(body))
	require.NoError(t, err)

	out, err := req.upstreamBody([]domain.Message{
		{Role: domain.RoleSystem, Content: "Ask for email"},
		{Role: domain.RoleUser, Content: "b"},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "gpt-4o",
		"temperature": 0.2,
		"messages": [{"role":"system","content":"Ask for email"},{"role":"user","content":"b"}],
		"tools": [{"type":"function"}]
	}`, string(out))
	assert.Equal(t, "c", gjson.Get(body, "call.id").String(), "The inbound body is left untouched")
}
