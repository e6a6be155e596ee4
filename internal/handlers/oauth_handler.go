package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"

	"ecommerce_back_end/internal/apperr"
)

// BeginAuth redirige vers le fournisseur (google, facebook).
func (h *AuthHandler) BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		respondError(c, apperr.Validation("provider", "aucun provider spécifié"))
		return
	}
	c.Request = withProvider(c.Request, provider)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth termine l'échange OAuth puis retrouve ou crée le compte.
func (h *AuthHandler) CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		respondError(c, apperr.Validation("provider", "aucun provider spécifié"))
		return
	}
	c.Request = withProvider(c.Request, provider)

	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ OAuth %s: %v", provider, err)
		respondError(c, apperr.Unauthorized("Authentification "+provider+" échouée"))
		return
	}

	u, pair, err := h.auth.OAuthLogin(c.Request.Context(), gu.Provider, gu.UserID, gu.Email, gu.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse(u, pair))
}

// withProvider place le provider dans la query pour gothic.GetProviderName.
func withProvider(r *http.Request, provider string) *http.Request {
	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()
	return r
}
