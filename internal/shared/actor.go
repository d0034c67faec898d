package shared

import "context"

// Actor identifies who performed a mutation. It is attached to every audit and
// adjustment record. The planning core treats it as an opaque pair.
type Actor struct {
	ID       int64
	Initials string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The zero Actor is
// returned when none is set.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
