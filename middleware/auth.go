package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextRoleKey stores the user's role inside Gin context.
	ContextRoleKey = "role"
	// ContextTokenKey stores the raw token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed claims.
	ContextClaimsKey = "claims"

	// SessionCookie carries the token for browser clients.
	SessionCookie = "blogcms_session"
)

// TokenChecker reports revoked tokens.
type TokenChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// AuthRequired ensures the request is authenticated via a bearer token or the session cookie.
func AuthRequired(jwt *utils.JWTManager, revoked TokenChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)
		if !ok {
			return
		}

		if revoked != nil && revoked.IsRevoked(ctx.Request.Context(), tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextRoleKey, models.Role(claims.Role))
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := ctx.Cookie(SessionCookie); err == nil && cookie != "" {
			return cookie, true
		}
		utils.Error(ctx, http.StatusUnauthorized, 40101, "unauthorized")
		ctx.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		ctx.Abort()
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		ctx.Abort()
		return "", false
	}
	return tokenString, true
}

// RequireRole lets only the listed roles through. It must run after AuthRequired.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := CurrentRole(ctx)
		for _, r := range roles {
			if role == r {
				ctx.Next()
				return
			}
		}
		utils.Error(ctx, http.StatusForbidden, 40301, "forbidden")
		ctx.Abort()
	}
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(ContextUserIDKey)
	return id, id != ""
}

// CurrentRole returns the authenticated user's role, empty when anonymous.
func CurrentRole(ctx *gin.Context) models.Role {
	if v, ok := ctx.Get(ContextRoleKey); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}
