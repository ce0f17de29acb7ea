package domain

import (
	"context"
	"time"
)

// Outcome is the branch taken by a turn.
type Outcome string

const (
	OutcomeProceed Outcome = "proceed"
	OutcomeReject  Outcome = "reject"
)

// Decision is the result of evaluating a turn against the pathway.
type Decision struct {
	CallID string
	// Index is the step that was evaluated.
	Index int
	// NextIndex is the position stored for the following turn.
	NextIndex    int
	Gated        bool
	Outcome      Outcome
	SystemPrompt string
	// Messages replaces the caller's transcript upstream.
	Messages []Message
	// ClassifierErr is set when the reject branch was forced by a classifier failure.
	ClassifierErr error
}

// Advanced reports whether the turn moved the call forward.
func (d *Decision) Advanced() bool { return d.Outcome == OutcomeProceed }

// DecisionEvent is emitted after every decided turn.
type DecisionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	CallID    string    `json:"call_id"`
	Index     int       `json:"index"`
	NextIndex int       `json:"next_index"`
	Gated     bool      `json:"gated"`
	Outcome   Outcome   `json:"outcome"`
}

// ClassifierEvent is emitted when the classifier fails.
type ClassifierEvent struct {
	Timestamp time.Time `json:"timestamp"`
	CallID    string    `json:"call_id"`
	Index     int       `json:"index"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnDecision        func(context.Context, *DecisionEvent)
	OnClassifierError func(context.Context, *ClassifierEvent)
}
