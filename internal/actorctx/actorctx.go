// Package actorctx carries the authenticated user and the request id on a
// context.Context so code below the HTTP layer can log who it is acting for.
package actorctx

import "context"

type (
	key          struct{}
	requestIDKey struct{}
)

type Actor struct {
	UserID   int64
	Username string
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, key{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(key{}).(Actor)
	return a, ok && a.UserID > 0
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	a, ok := From(ctx)
	return a.UserID, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
