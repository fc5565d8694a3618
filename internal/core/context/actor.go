// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor identifies who performs a mutation. There is no authentication
// layer; the actor is whatever name the client supplies and is recorded
// in audit fields (created_by, last_edited_by, ledger actor).
type Actor struct {
	Name string
}

type actorContextKey struct{}

// WithActor adds the acting user name to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns the Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetActorName returns the acting user name or "system" when absent.
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Name != "" {
		return a.Name
	}
	return "system"
}
