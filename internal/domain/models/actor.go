package models

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/types"
)

// Actor is the already-authenticated identity extracted from a bearer
// token. Issuance lives in the auth subsystem, not here.
type Actor struct {
	ID   uuid.UUID
	Role types.UserRole
}

func (a *Actor) IsAnonymous() bool {
	return a == anonymousActor
}

var anonymousActor = &Actor{}

func AnonymousActor() *Actor {
	return anonymousActor
}

type actorKeyStruct struct{}

var actorKey = &actorKeyStruct{}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) *Actor {
	if actor, ok := ctx.Value(actorKey).(*Actor); ok {
		return actor
	}
	return AnonymousActor()
}
