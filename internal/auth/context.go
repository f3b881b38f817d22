package auth

import (
	"context"
	"slices"
)

// Principal is the caller identity asserted by the gateway token.
type Principal struct {
	ParticipantID string
	Capabilities  []string
}

func (p Principal) Has(capability string) bool {
	return slices.Contains(p.Capabilities, capability)
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func ParticipantIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.ParticipantID == "" {
		return "", false
	}
	return p.ParticipantID, true
}
