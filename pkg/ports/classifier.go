package ports

import "context"

// Classifier decides whether a natural-language condition holds for the user's message.
// assistantContext is the preceding assistant message, or "" when there is none.
type Classifier interface {
	Classify(ctx context.Context, condition, assistantContext, userMessage string) (bool, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, condition, assistantContext, userMessage string) (bool, error)

func (f ClassifierFunc) Classify(ctx context.Context, condition, assistantContext, userMessage string) (bool, error) {
	return f(ctx, condition, assistantContext, userMessage)
}
