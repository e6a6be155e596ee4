package services

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	events   cache.CartEvents
	now      func() time.Time
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, events cache.CartEvents) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate charge le panier ou en construit un vide, non persisté
// avant la première modification.
func (s *CartService) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return models.NewCart(userID, s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// View enrichit le panier avec le nom et le prix courant des produits.
// Une ligne dont le produit a disparu est ignorée.
func (s *CartService) View(ctx context.Context, userID string) (*models.CartView, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	v := &models.CartView{UserID: cart.UserID, Items: []models.CartLine{}, Total: decimal.Zero, UpdatedAt: cart.UpdatedAt}
	for _, item := range cart.Items {
		id, err := ParseProductID(item.ProductID)
		if err != nil {
			continue
		}
		p, err := s.products.Get(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		v.Items = append(v.Items, models.CartLine{
			ProductID: item.ProductID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		v.Total = v.Total.Add(subtotal)
	}
	return v, nil
}

func (s *CartService) Total(ctx context.Context, userID string) (decimal.Decimal, error) {
	v, err := s.View(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Total, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartView, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("quantity", "La quantité doit être supérieure à 0")
	}
	if quantity > models.MaxQuantity {
		return nil, tooLarge("quantity")
	}
	p, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock-cart.Quantity(productID) {
		return nil, apperr.InsufficientStock(p.Name)
	}

	cart.AddItem(productID, quantity, s.now())
	return s.save(ctx, cart, cache.CartUpdated)
}

// UpdateItem remplace la quantité d'une ligne; 0 la retire.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*models.CartView, error) {
	if quantity < 0 {
		return nil, apperr.Validation("quantity", "La quantité ne peut pas être négative")
	}
	if quantity > models.MaxQuantity {
		return nil, tooLarge("quantity")
	}
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Quantity(productID) == 0 {
		return nil, apperr.NotFound("Produit dans le panier")
	}
	if quantity > 0 {
		p, err := s.product(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p.Stock < quantity {
			return nil, apperr.InsufficientStock(p.Name)
		}
	}

	cart.UpdateItemQuantity(productID, quantity, s.now())
	return s.save(ctx, cart, cache.CartUpdated)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.CartView, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(productID, s.now()) {
		return nil, apperr.NotFound("Produit dans le panier")
	}
	return s.save(ctx, cart, cache.CartUpdated)
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	cart.Clear(s.now())
	_, err = s.save(ctx, cart, cache.CartCleared)
	return err
}

func (s *CartService) product(ctx context.Context, productID string) (*models.Product, error) {
	id, err := ParseProductID(productID)
	if err != nil {
		return nil, err
	}
	return s.products.Get(ctx, id)
}

func (s *CartService) save(ctx context.Context, cart *models.Cart, event string) (*models.CartView, error) {
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, cart.UserID, event); err != nil {
			log.Printf("⚠️ Événement panier non publié pour %s: %v", cart.UserID, err)
		}
	}
	return s.view(ctx, cart)
}
