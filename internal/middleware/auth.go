package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/wire"
)

type ctxKey struct{}

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID string
	Role   model.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// skip auth for these
var open = map[string]bool{
	wire.FullMethod("Register"):     true,
	wire.FullMethod("Login"):        true,
	wire.FullMethod("RefreshToken"): true,
}

func Auth(iss *auth.Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimSpace(strings.TrimPrefix(vals[0], "Bearer "))
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := iss.ParseToken(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		role, _ := model.ParseRole(claims.Role)

		return next(WithIdentity(ctx, Identity{UserID: claims.UserID, Role: role}), req)
	}
}
