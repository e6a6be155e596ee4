package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/invoice"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
	"ecommerce_back_end/internal/services"
)

type OrderHandler struct {
	orders   *services.OrderService
	users    repository.UserRepository
	invoices *invoice.Renderer
}

func NewOrderHandler(orders *services.OrderService, users repository.UserRepository, invoices *invoice.Renderer) *OrderHandler {
	return &OrderHandler{orders: orders, users: users, invoices: invoices}
}

func orderID(c *gin.Context) (gocql.UUID, bool) {
	id, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		respondError(c, apperr.Validation("id", "ID commande invalide"))
		return gocql.UUID{}, false
	}
	return id, true
}

// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), middleware.UserID(c), *req.ShippingAddress, req.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GET /api/orders?page=1&per_page=20
func (h *OrderHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	result, err := h.orders.ListByUser(c.Request.Context(), middleware.UserID(c), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, result)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, valid := orderID(c)
	if !valid {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), id, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, order)
}

// POST /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, valid := orderID(c)
	if !valid {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), id, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// PUT /api/orders/:id/status (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, valid := orderID(c)
	if !valid {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, order)
}

// GET /api/orders/:id/invoice?format=pdf
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, valid := orderID(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()
	order, err := h.orders.GetByID(ctx, id, requester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.GetByID(ctx, order.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "pdf" {
		if !h.invoices.Enabled() {
			respondError(c, apperr.StoreUnavailable("invoice.pdf", fmt.Errorf("génération PDF désactivée")))
			return
		}
		pdf, err := h.invoices.PDF(ctx, order, user)
		if err != nil {
			respondError(c, apperr.Internal("invoice.pdf", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="facture-%s.pdf"`, order.ID))
		c.Data(http.StatusOK, "application/pdf", pdf)
		return
	}

	html, err := h.invoices.HTML(order, user)
	if err != nil {
		respondError(c, apperr.Internal("invoice.html", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
