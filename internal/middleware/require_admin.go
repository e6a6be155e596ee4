package middleware

import (
	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin"
func RequireAdmin(c *gin.Context) {
	if Role(c) != models.RoleAdmin {
		abortWithError(c, apperr.Forbidden("Accès réservé aux administrateurs"))
		return
	}
	c.Next()
}
