package middleware

import "context"

type ownerSinkKey struct{}

func withOwnerSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, ownerSinkKey{}, sink)
}

func ownerSink(ctx context.Context) *string {
	sink, _ := ctx.Value(ownerSinkKey{}).(*string)
	return sink
}
