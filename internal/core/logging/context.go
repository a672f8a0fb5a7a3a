package logging

import "context"

type contextKey string

const (
	commentIDKey contextKey = "comment_id"
	sourceKey    contextKey = "source"
)

// WithCommentID adds a comment ID to the context.
func WithCommentID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, commentIDKey, id)
}

// WithSource adds the name of the feed a payload arrived on to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// GetCommentID retrieves the comment ID from the context.
// Returns false if not present.
func GetCommentID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(commentIDKey).(int64)
	return id, ok
}

// GetSource retrieves the feed name from the context.
// Returns empty string if not present.
func GetSource(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey).(string); ok {
		return s
	}
	return ""
}
