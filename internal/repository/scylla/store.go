// Package scylla implémente les dépôts sur ScyllaDB, un keyspace par domaine :
// produits, utilisateurs et commandes (paniers et coupons inclus).
package scylla

import (
	"ecommerce_back_end/internal/database"
	"ecommerce_back_end/internal/repository"
)

func NewStore(sm *database.ScyllaManager) (*repository.Store, error) {
	products, err := sm.Products()
	if err != nil {
		return nil, err
	}
	users, err := sm.Users()
	if err != nil {
		return nil, err
	}
	orders, err := sm.Orders()
	if err != nil {
		return nil, err
	}

	return &repository.Store{
		Products:  NewProductRepository(products),
		Movements: NewStockMovementRepository(products),
		Coupons:   NewCouponRepository(orders),
		Carts:     NewCartRepository(orders),
		Orders:    NewOrderRepository(orders),
		Users:     NewUserRepository(users),
		Tokens:    NewTokenBlocklist(users),
	}, nil
}
