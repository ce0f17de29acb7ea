package http

import (
	"fmt"
	"strings"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// strippedFields never reach the upstream.
var strippedFields = []string{"call", "metadata", "phoneNumber", "customer"}

// variablePaths lists, per placeholder, the request paths it is read from in order.
var variablePaths = map[string][]string{
	domain.VarCustomerName: {"customer.name"},
	domain.VarEmail:        {"email", "customer.email"},
	domain.VarCompanyName:  {"company_name", "customer.company_name"},
	domain.VarIndustry:     {"industry", "customer.industry"},
	domain.VarWebsite:      {"website", "customer.website"},
}

// completionRequest is the part of an inbound body the proxy understands.
// Everything else is carried in raw and forwarded.
type completionRequest struct {
	raw    []byte
	turn   domain.Turn
	stream bool
}

func parseRequest(body []byte) (*completionRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed JSON body", domain.ErrValidation)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: body must be a JSON object", domain.ErrValidation)
	}
	messages := root.Get("messages")
	if !messages.IsArray() {
		return nil, fmt.Errorf("%w: messages must be an array", domain.ErrValidation)
	}

	req := &completionRequest{
		raw:    body,
		stream: root.Get("stream").Bool(),
		turn: domain.Turn{
			CallID:    root.Get("call.id").String(),
			Variables: make(domain.Variables, len(variablePaths)),
		},
	}
	messages.ForEach(func(_, m gjson.Result) bool {
		req.turn.Messages = append(req.turn.Messages, domain.Message{
			Role:    m.Get("role").String(),
			Content: messageText(m.Get("content")),
		})
		return true
	})
	for name, paths := range variablePaths {
		req.turn.Variables[name] = firstOf(root, paths...)
	}
	return req, nil
}

// upstreamBody replaces the transcript and drops call-specific fields.
func (r *completionRequest) upstreamBody(messages []domain.Message) ([]byte, error) {
	out := r.raw
	var err error
	for _, field := range strippedFields {
		if out, err = sjson.DeleteBytes(out, field); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(out, "messages", messages)
}

// messageText flattens string or multi-part content to plain text.
func messageText(content gjson.Result) string {
	switch {
	case content.Type == gjson.String:
		return content.Str
	case content.IsArray():
		var parts []string
		content.ForEach(func(_, part gjson.Result) bool {
			if text := part.Get("text"); text.Exists() {
				parts = append(parts, text.String())
			}
			return true
		})
		return strings.Join(parts, "\n")
	case content.Exists() && content.Type != gjson.Null:
		return content.Raw
	}
	return ""
}

func firstOf(root gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := root.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
