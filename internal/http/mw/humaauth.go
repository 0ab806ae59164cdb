package mw

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// SecurityScheme is the OpenAPI security scheme name for bearer auth.
const SecurityScheme = "bearer"

// HumaAuth returns a Huma middleware enforcing bearer auth on every
// operation that declares the security scheme. Operations without a
// security requirement pass through untouched.
func HumaAuth(api huma.API, secret string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(ctx.Operation().Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		if authHeader == "" {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		userID, email, err := validateToken(secret, token)
		if err != nil {
			huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid token")
			return
		}

		next(huma.WithValue(huma.WithValue(ctx, UserIDKey, userID), UserEmailKey, email))
	}
}
