package scylla

import (
	"context"
	"sort"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/models"
)

// CartRepository stocke les lignes dans une map<text, int> produit → quantité.
type CartRepository struct {
	session *gocql.Session
}

func NewCartRepository(session *gocql.Session) *CartRepository {
	return &CartRepository{session: session}
}

func (r *CartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	var items map[string]int
	if err := r.session.Query(stmtGetCart, userID).WithContext(ctx).
		Scan(&items, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, translate("carts.get", "Panier", err)
	}

	cart.Items = make([]models.CartItem, 0, len(items))
	for productID, qty := range items {
		cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: qty})
	}
	sort.Slice(cart.Items, func(i, j int) bool { return cart.Items[i].ProductID < cart.Items[j].ProductID })
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	items := make(map[string]int, len(cart.Items))
	for _, item := range cart.Items {
		items[item.ProductID] = item.Quantity
	}
	err := r.session.Query(stmtSaveCart, cart.UserID, items, cart.CreatedAt, cart.UpdatedAt).
		WithContext(ctx).Exec()
	return translate("carts.save", "Panier", err)
}
