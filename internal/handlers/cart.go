package handlers

import (
	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/services"
)

type CartHandler struct {
	carts  *services.CartService
	events cache.CartEvents
}

func NewCartHandler(carts *services.CartService, events cache.CartEvents) *CartHandler {
	return &CartHandler{carts: carts, events: events}
}

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"max=2147483647"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=2147483647"`
}

func (h *CartHandler) Get(c *gin.Context) {
	view, err := h.carts.View(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, view)
}

// POST /api/cart
func (h *CartHandler) Add(c *gin.Context) {
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), middleware.UserID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, view)
}

// PUT /api/cart/:product_id
func (h *CartHandler) Update(c *gin.Context) {
	var req updateCartRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.carts.UpdateItem(c.Request.Context(), middleware.UserID(c), c.Param("product_id"), *req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, view)
}

// DELETE /api/cart/:product_id
func (h *CartHandler) Remove(c *gin.Context) {
	view, err := h.carts.RemoveItem(c.Request.Context(), middleware.UserID(c), c.Param("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, view)
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": "Panier vidé"})
}
