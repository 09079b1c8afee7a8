package server

import (
	"context"

	"moviecatalog/internal/biz"
	"moviecatalog/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDMiddleware propagates the caller's X-Request-Id or assigns a new
// one, and echoes it in the reply headers.
func RequestIDMiddleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			id := tr.RequestHeader().Get(requestIDHeader)
			if id == "" {
				if v7, err := uuid.NewV7(); err == nil {
					id = v7.String()
				} else {
					id = uuid.NewString()
				}
			}
			tr.ReplyHeader().Set(requestIDHeader, id)

			return handler(context.WithValue(ctx, requestIDKey{}, id), req)
		}
	}
}

// RequestID is a log valuer that prints the current request id.
func RequestID() log.Valuer {
	return func(ctx context.Context) interface{} {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok {
			return id
		}
		return ""
	}
}

// AuthMiddleware validates Bearer tokens for every operation that is not
// public.
func AuthMiddleware(tokens *biz.TokenIssuer) middleware.Middleware {
	return selector.Server(
		jwt.Server(
			tokens.Keyfunc,
			jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
			jwt.WithClaims(func() jwtv5.Claims { return &biz.Claims{} }),
		),
	).Match(func(ctx context.Context, operation string) bool {
		return !service.PublicOperations[operation]
	}).Build()
}
