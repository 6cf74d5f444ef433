package rbac

import "context"

// ActorContext captures everything the permission engine needs to know about
// the acting party relative to one entity snapshot. It is derived fresh for
// every authorization query, never cached.
type ActorContext struct {
	ActorID    string
	RoleLevel  RoleLevel
	IsOwner    bool
	IsAssigned bool
}

// ForEntity returns a copy of the actor context with relational facts
// recomputed against the given owner and assignee identifiers.
func (a ActorContext) ForEntity(ownerID, assignedID string) ActorContext {
	out := a
	out.IsOwner = a.ActorID != "" && a.ActorID == ownerID
	out.IsAssigned = a.ActorID != "" && a.ActorID == assignedID
	return out
}

type actorContextKey struct{}

// ContextWithActor attaches the authenticated actor to the context.
func ContextWithActor(ctx context.Context, actor ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, &actor)
}

// ActorFromContext extracts the authenticated actor from the context.
func ActorFromContext(ctx context.Context) (ActorContext, bool) {
	if ctx == nil {
		return ActorContext{}, false
	}
	v, ok := ctx.Value(actorContextKey{}).(*ActorContext)
	if !ok || v == nil {
		return ActorContext{}, false
	}
	return *v, true
}
