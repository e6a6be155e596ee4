// Package memory fournit des dépôts en mémoire protégés par mutex,
// avec les mêmes garanties d'atomicité que le driver ScyllaDB.
package memory

import "ecommerce_back_end/internal/repository"

func NewStore() *repository.Store {
	return &repository.Store{
		Products:  NewProductRepository(),
		Movements: NewStockMovementRepository(),
		Coupons:   NewCouponRepository(),
		Carts:     NewCartRepository(),
		Orders:    NewOrderRepository(),
		Users:     NewUserRepository(),
		Tokens:    NewTokenBlocklist(),
	}
}
