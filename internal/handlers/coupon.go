package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/services"
)

type CouponHandler struct {
	coupons *services.CouponService
}

func NewCouponHandler(coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

func (h *CouponHandler) Create(c *gin.Context) {
	var in models.CouponInput
	if !bindJSON(c, &in) {
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	coupons, total, err := h.coupons.List(c.Request.Context(), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	ok(c, gin.H{"coupons": coupons, "total": total, "page": page, "per_page": perPage})
}

func (h *CouponHandler) Get(c *gin.Context) {
	coupon, err := h.coupons.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, coupon)
}

func (h *CouponHandler) Update(c *gin.Context) {
	var upd models.CouponUpdate
	if !bindJSON(c, &upd) {
		return
	}
	coupon, err := h.coupons.Update(c.Request.Context(), c.Param("code"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, coupon)
}

func (h *CouponHandler) Delete(c *gin.Context) {
	if err := h.coupons.Delete(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": "Coupon supprimé"})
}

type validateCouponRequest struct {
	Code  string          `json:"code" binding:"required"`
	Total decimal.Decimal `json:"total"`
}

// POST /api/coupons/validate
func (h *CouponHandler) Validate(c *gin.Context) {
	var req validateCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.coupons.Validate(c.Request.Context(), req.Code, req.Total)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, result)
}
