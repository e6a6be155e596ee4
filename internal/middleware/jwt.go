package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/auth"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// Authenticator valide un access token (signature, expiration, révocation).
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
}

func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": apperr.Message(err), "code": kind.Code()})
}

// BearerToken extrait le token du header Authorization.
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func AuthRequired(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortWithError(c, apperr.Unauthorized("Token manquant"))
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			abortWithError(c, apperr.Unauthorized("Format Authorization invalide"))
			return
		}

		claims, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Printf("❌ Authentification refusée (%s %s): %v", c.Request.Method, c.FullPath(), err)
			abortWithError(c, err)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func Role(c *gin.Context) string { return c.GetString(ctxRole) }

// Claims retourne les claims posés par AuthRequired.
func Claims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
