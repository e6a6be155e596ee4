package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/middleware"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/services"
)

const maxImageSize = 10 << 20

type ProductHandler struct {
	catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GET /api/products?page=1&per_page=20
func (h *ProductHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	result, err := h.catalog.List(c.Request.Context(), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, result)
}

// GET /api/products/search?q=...
func (h *ProductHandler) Search(c *gin.Context) {
	products, err := h.catalog.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	ok(c, gin.H{"products": products, "count": len(products)})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var in models.ProductInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.catalog.Create(c.Request.Context(), in, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	var upd models.ProductUpdate
	if !bindJSON(c, &upd) {
		return
	}
	p, err := h.catalog.Update(c.Request.Context(), id, upd, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"message": "Produit supprimé"})
}

// PUT /api/products/:id/stock
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req models.StockUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.UpdateStock(c.Request.Context(), id, req, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p)
}

// GET /api/products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	movements, err := h.catalog.Movements(c.Request.Context(), id, queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	ok(c, gin.H{"movements": movements})
}

// POST /api/products/:id/image (multipart, champ "image")
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, err := services.ParseProductID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, apperr.Validation("image", "Fichier image manquant"))
		return
	}
	if file.Size > maxImageSize {
		respondError(c, apperr.Validation("image", "Image trop volumineuse (10 Mo max)"))
		return
	}
	f, err := file.Open()
	if err != nil {
		respondError(c, apperr.Internal("image.open", err))
		return
	}
	defer f.Close()

	p, err := h.catalog.UploadImage(c.Request.Context(), id, file.Filename, f, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, p)
}
