package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[gocql.UUID]models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[gocql.UUID]models.Product)}
}

func (r *ProductRepository) Get(_ context.Context, id gocql.UUID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("Produit")
	}
	return &p, nil
}

func (r *ProductRepository) List(_ context.Context, page, perPage int) ([]models.Product, int, error) {
	r.mu.RLock()
	all := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	start, end := repository.Paginate(page, perPage, len(all))
	return all[start:end], len(all), nil
}

func (r *ProductRepository) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[p.ID]; exists {
		return apperr.Conflict("Produit déjà existant")
	}
	r.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[p.ID]
	if !ok {
		return apperr.NotFound("Produit")
	}
	updated := *p
	updated.Stock = current.Stock
	updated.CreatedAt = current.CreatedAt
	r.products[p.ID] = updated
	return nil
}

func (r *ProductRepository) AdjustStock(_ context.Context, id gocql.UUID, delta int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, apperr.NotFound("Produit")
	}
	if delta < -p.Stock {
		return nil, apperr.InsufficientStock(p.Name)
	}
	if delta > models.MaxQuantity-p.Stock {
		return nil, apperr.Validation("quantity", "Le stock dépasserait la limite autorisée")
	}
	p.Stock += delta
	r.products[id] = p
	return &p, nil
}

func (r *ProductRepository) SetStock(_ context.Context, id gocql.UUID, stock int) (int, error) {
	if stock < 0 {
		return 0, apperr.Validation("stock", "Le stock ne peut pas être négatif")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, apperr.NotFound("Produit")
	}
	prev := p.Stock
	p.Stock = stock
	r.products[id] = p
	return prev, nil
}

func (r *ProductRepository) Delete(_ context.Context, id gocql.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperr.NotFound("Produit")
	}
	delete(r.products, id)
	return nil
}

type StockMovementRepository struct {
	mu        sync.Mutex
	movements map[gocql.UUID][]models.StockMovement
}

func NewStockMovementRepository() *StockMovementRepository {
	return &StockMovementRepository{movements: make(map[gocql.UUID][]models.StockMovement)}
}

func (r *StockMovementRepository) Record(_ context.Context, m *models.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements[m.ProductID] = append(r.movements[m.ProductID], *m)
	return nil
}

// ListByProduct retourne les mouvements les plus récents d'abord.
func (r *StockMovementRepository) ListByProduct(_ context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.movements[productID]
	out := make([]models.StockMovement, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, src[i])
	}
	return out, nil
}
