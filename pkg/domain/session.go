package domain

// Message roles used in transcripts.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single transcript entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Variables holds the named substitution values for a call.
type Variables map[string]string

// Placeholder names recognised by the default renderer.
const (
	VarCustomerName = "customer_name"
	VarEmail        = "email"
	VarCompanyName  = "company_name"
	VarIndustry     = "industry"
	VarWebsite      = "website"
)

// CallSession is the per-call view of the pathway.
// Position is persisted; Variables are rebuilt from every request.
type CallSession struct {
	CallID    string    `json:"call_id"`
	Position  int       `json:"position"`
	Variables Variables `json:"variables,omitempty"`
}

// Turn is one inbound conversation turn.
type Turn struct {
	CallID    string
	Messages  []Message
	Variables Variables
}

// LastMessage returns the current user turn.
func (t Turn) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// PreviousMessage returns the message before the current turn, usually the last assistant reply.
func (t Turn) PreviousMessage() (Message, bool) {
	if len(t.Messages) < 2 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-2], true
}
