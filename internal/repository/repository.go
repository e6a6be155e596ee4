// Package repository définit les contrats de persistance du back-end.
// Deux implémentations existent : scylla (production) et memory
// (tests et développement local).
package repository

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/models"
)

type ProductRepository interface {
	Get(ctx context.Context, id gocql.UUID) (*models.Product, error)
	List(ctx context.Context, page, perPage int) ([]models.Product, int, error)
	Create(ctx context.Context, p *models.Product) error
	// Update réécrit les champs éditables sauf le stock.
	Update(ctx context.Context, p *models.Product) error
	// AdjustStock applique delta de façon atomique et refuse un stock négatif
	// avec une erreur InsufficientStock. Retourne le produit après mise à jour.
	AdjustStock(ctx context.Context, id gocql.UUID, delta int) (*models.Product, error)
	// SetStock fixe une valeur absolue et retourne l'ancien stock.
	SetStock(ctx context.Context, id gocql.UUID, stock int) (int, error)
	Delete(ctx context.Context, id gocql.UUID) error
}

type StockMovementRepository interface {
	Record(ctx context.Context, m *models.StockMovement) error
	ListByProduct(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error)
}

type CouponRepository interface {
	Get(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, page, perPage int) ([]models.Coupon, int, error)
	// Create échoue avec Conflict si le code existe déjà.
	Create(ctx context.Context, c *models.Coupon) error
	// Update réécrit les champs éditables, jamais used_count.
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, code string) error
	// Redeem incrémente used_count de façon atomique si le coupon est
	// valide à now, sinon InvalidCoupon.
	Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error)
	// Release annule une utilisation dont la commande n'a jamais été créée.
	Release(ctx context.Context, code string) error
}

type CartRepository interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// Save est un upsert par user_id.
	Save(ctx context.Context, cart *models.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id gocql.UUID) (*models.Order, error)
	// ListByUser retourne les commandes les plus récentes d'abord.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]models.Order, int, error)
	// UpdateStatus ne réussit que si le statut courant vaut expected;
	// retourne false sinon.
	UpdateStatus(ctx context.Context, id gocql.UUID, expected, next models.OrderStatus, now time.Time) (bool, error)
}

type UserRepository interface {
	// Create échoue avec Conflict si l'email est déjà utilisé.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type TokenBlocklist interface {
	Revoke(ctx context.Context, jti, userID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Store regroupe les dépôts injectés dans les services.
type Store struct {
	Products  ProductRepository
	Movements StockMovementRepository
	Coupons   CouponRepository
	Carts     CartRepository
	Orders    OrderRepository
	Users     UserRepository
	Tokens    TokenBlocklist
}

// Paginate convertit une page (à partir de 1) en bornes d'offset.
func Paginate(page, perPage, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	start = (page - 1) * perPage
	if start > total {
		start = total
	}
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end
}
