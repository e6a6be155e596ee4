package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func authResponse(u *models.User, pair *models.TokenPair) gin.H {
	return gin.H{
		"user":          u,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse(u, pair))
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, authResponse(u, pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, pair)
}

// POST /api/auth/logout : révoque l'access token et le refresh token éventuel
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.auth.Logout(c.Request.Context(), middleware.Claims(c), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": "Déconnexion réussie"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, u)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var upd models.ProfileUpdate
	if !bindJSON(c, &upd) {
		return
	}
	u, err := h.auth.UpdateMe(c.Request.Context(), middleware.UserID(c), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, u)
}
