package middleware

import (
	"context"
	"net/http"
	"strings"

	"producer-chat/internal/services"
	"producer-chat/internal/transport/httpdto"
	"producer-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is what the marketplace's identity provider signs into its
// bearer tokens. Only verification happens here; issuing is external.
type AccessClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		claims, err := parseAccessToken(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithIdentity(c.Request.Context(), services.Identity{
			ID:          userID,
			DisplayName: claims.DisplayName,
			Email:       claims.Email,
		})
		ctx = context.WithValue(ctx, logger.UserIdKey, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseAccessToken(tokenString string, secret []byte) (AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return AccessClaims{}, err
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, jwt.ErrTokenInvalidClaims
	}

	return *claims, nil
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
