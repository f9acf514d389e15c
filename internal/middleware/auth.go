package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"trackr/internal/auth"
	apperrors "trackr/internal/errors"
)

// ContextKeyUser is where authenticated claims are stored on the echo context.
const ContextKeyUser = "user"

var (
	errTokenRequired = apperrors.ErrorResponse{Error: "A token is required for authentication", Code: "TOKEN_REQUIRED"}
	errTokenInvalid  = apperrors.ErrorResponse{Error: "Invalid or expired token", Code: "INVALID_TOKEN"}
	errTokenRevoked  = errors.New("token has been revoked")
)

// BearerAuth authenticates requests carrying "Authorization: Bearer <token>".
// A missing header yields 403, a token that fails validation or was revoked
// on logout yields 401.
func BearerAuth(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKeyUser,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, errTokenRevoked
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				return echo.NewHTTPError(http.StatusForbidden, errTokenRequired).SetInternal(err)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, errTokenInvalid).SetInternal(err)
		},
	})
}

// UserClaims returns the claims BearerAuth stored for the request.
func UserClaims(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ContextKeyUser).(*auth.Claims)
	return claims, ok && claims != nil
}
