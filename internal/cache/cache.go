package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

const (
	productListPrefix = "products_page_"
	productPrefix     = "product_"
)

// Store est un cache clé/valeur JSON à durée de vie bornée.
type Store interface {
	// Get décode la valeur dans dest; false si la clé est absente.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Counter incrémente un compteur dans une fenêtre glissante (rate limit).
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

func ProductListKey(page, perPage int) string {
	return fmt.Sprintf("%s%d_per_page_%d", productListPrefix, page, perPage)
}

func ProductKey(id gocql.UUID) string {
	return productPrefix + id.String()
}

// InvalidateProduct supprime la fiche d'un produit et toutes les pages de liste.
func InvalidateProduct(ctx context.Context, s Store, id gocql.UUID) error {
	if err := s.Delete(ctx, ProductKey(id)); err != nil {
		return err
	}
	return s.DeletePrefix(ctx, productListPrefix)
}

// Noop désactive le cache.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error { return nil }
