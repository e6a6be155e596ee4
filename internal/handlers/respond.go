package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/services"
)

// respondError traduit une erreur typée en réponse {"error","code","field"}.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindStoreUnavailable {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"error": apperr.Message(err), "code": kind.Code()}
	if field := apperr.Field(err); field != "" {
		body["field"] = field
	}
	c.JSON(kind.HTTPStatus(), body)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.Validation("body", "Données invalides: "+err.Error()))
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func pageParams(c *gin.Context) (int, int) {
	return queryInt(c, "page", 1), queryInt(c, "per_page", 20)
}

func requester(c *gin.Context) services.Requester {
	return services.Requester{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func ok(c *gin.Context, v interface{}) { c.JSON(http.StatusOK, v) }
