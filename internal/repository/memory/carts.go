package memory

import (
	"context"
	"sync"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

type CartRepository struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]models.Cart)}
}

func (r *CartRepository) Get(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return nil, apperr.NotFound("Panier")
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (r *CartRepository) Save(_ context.Context, cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *cart
	stored.Items = append([]models.CartItem{}, cart.Items...)
	r.carts[cart.UserID] = stored
	return nil
}
