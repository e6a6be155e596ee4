package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type OrderRepository struct {
	mu     sync.Mutex
	orders map[gocql.UUID]models.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[gocql.UUID]models.Order)}
}

func (r *OrderRepository) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return apperr.Conflict("Commande déjà existante")
	}
	stored := *o
	stored.Items = append([]models.OrderItem{}, o.Items...)
	r.orders[o.ID] = stored
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id gocql.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("Commande")
	}
	o.Items = append([]models.OrderItem{}, o.Items...)
	return &o, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string, page, perPage int) ([]models.Order, int, error) {
	r.mu.Lock()
	var mine []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}
	r.mu.Unlock()

	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	start, end := repository.Paginate(page, perPage, len(mine))
	return mine[start:end], len(mine), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id gocql.UUID, expected, next models.OrderStatus, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, apperr.NotFound("Commande")
	}
	if o.Status != expected {
		return false, nil
	}
	o.Status = next
	o.UpdatedAt = now
	r.orders[id] = o
	return true, nil
}
