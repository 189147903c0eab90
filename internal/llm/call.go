package llm

import "context"

type callKey struct{}

// Call labels a request in the event log. Purpose is "chat" or
// "translate"; Session ties the turns of one chat conversation together.
type Call struct {
	Purpose string
	Session string
}

// WithCall attaches c to the context.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// WithPurpose sets only the purpose label, keeping any session.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	c := CallFrom(ctx)
	c.Purpose = purpose
	return WithCall(ctx, c)
}

// CallFrom returns the labels on ctx. A missing purpose reads as "unknown".
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Purpose == "" {
		c.Purpose = "unknown"
	}
	return c
}

// PurposeFrom returns the purpose label on ctx.
func PurposeFrom(ctx context.Context) string {
	return CallFrom(ctx).Purpose
}
