package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type UserContext struct {
	UserID string
	Email  string
	Lang   string
}

type ctxKey struct{}

// WithUser stores the caller identity resolved by the upstream auth gateway.
func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) UserContext {
	if u, ok := ctx.Value(ctxKey{}).(UserContext); ok {
		return u
	}

	// Fallback to gRPC metadata
	var u UserContext
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			u.UserID = val[0]
		}
		if val := md.Get("x-user-email"); len(val) > 0 {
			u.Email = val[0]
		}
		if val := md.Get("x-lang"); len(val) > 0 {
			u.Lang = val[0]
		}
	}
	return u
}

func GetUserID(ctx context.Context) string {
	return FromContext(ctx).UserID
}

// GetLang returns the negotiated language, "en" when unset.
func GetLang(ctx context.Context) string {
	if l := FromContext(ctx).Lang; l != "" {
		return l
	}
	return "en"
}
