package llm

import "context"

// CallInfo labels one upstream attempt for event logging.
type CallInfo struct {
	Purpose    string
	QuestionID string
	// Attempt is one-based; zero means unknown.
	Attempt int
}

type callKey struct{}

// WithCall attaches call labels to the context.
func WithCall(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callKey{}, info)
}

// CallFrom returns the labels attached to ctx. Purpose defaults to "unknown".
func CallFrom(ctx context.Context) CallInfo {
	info, _ := ctx.Value(callKey{}).(CallInfo)
	if info.Purpose == "" {
		info.Purpose = "unknown"
	}
	return info
}

// WithPurpose sets only the purpose label, keeping any other labels.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	info, _ := ctx.Value(callKey{}).(CallInfo)
	info.Purpose = purpose
	return WithCall(ctx, info)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	return CallFrom(ctx).Purpose
}
