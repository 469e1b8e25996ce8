package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/handlers"
)

// OwnerTokenCookie names the cookie carrying the creator's opaque token.
const OwnerTokenCookie = "owner_token"

const ownerTokenTTL = 365 * 24 * time.Hour

// RequestMeta extracts the client IP and owner token into the request
// context. A visitor without an owner token gets one issued on the spot;
// the token scopes "my links" listings and is not a security boundary.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:   extractClientIP(ctx),
			OwnerToken: ownerToken(ctx),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

func ownerToken(ctx huma.Context) string {
	if cookie, err := huma.ReadCookie(ctx, OwnerTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := uuid.NewString()

	issued := &http.Cookie{
		Name:     OwnerTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ownerTokenTTL),
		HttpOnly: true,
	}
	ctx.AppendHeader("Set-Cookie", issued.String())

	return token
}

func extractClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP
	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to remote addr
	host := ctx.Host()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}
