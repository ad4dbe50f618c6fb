package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/zerovacancy/payments/pkg/errors"
	"go.uber.org/zap"
)

// AuthUser is the caller established from a bearer token.
type AuthUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// contextKey is used for storing user in context
type contextKey string

const (
	userContextKey contextKey = "authenticated_user"
)

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	// Secret is the HS256 signing secret. Empty disables verification and
	// requests carry no authenticated user.
	Secret string
	Logger *zap.Logger
}

// JWTMiddleware validates identity provider access tokens and stores the
// caller in the request context.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if config.Secret == "" {
			return next
		}

		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				config.Logger.Warn("Missing authorization header",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authorization header required",
				})
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				config.Logger.Warn("Invalid authorization header format",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid authorization header format. Expected: Bearer <token>",
				})
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(config.Secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
				})
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				config.Logger.Warn("Token has no subject",
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid token claims",
				})
			}

			email, _ := claims["email"].(string)
			role, _ := claims["role"].(string)
			authUser := &AuthUser{
				UserID: sub,
				Email:  email,
				Role:   role,
			}

			c.SetRequest(c.Request().WithContext(ContextWithUser(c.Request().Context(), authUser)))
			c.Set("user_id", sub)

			config.Logger.Debug("User authenticated successfully",
				zap.String("user_id", sub),
				zap.String("path", path))

			return next(c)
		}
	}
}

// ContextWithUser returns a copy of ctx carrying user.
func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, bool) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	return user, ok && user != nil
}

// EnsureUser checks that userID names the authenticated caller. Without an
// authenticated user every userID is accepted.
func EnsureUser(c echo.Context, userID string) error {
	user, ok := GetUserFromContext(c)
	if !ok || userID == "" || user.UserID == userID {
		return nil
	}
	return pkgerrors.NewAppError(pkgerrors.ErrNotFoundOrForbidden, "userId does not match the authenticated user", nil)
}
