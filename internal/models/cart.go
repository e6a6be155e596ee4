package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// AddItem cumule la quantité si le produit est déjà dans le panier.
func (c *Cart) AddItem(productID string, quantity int, now time.Time) {
	defer c.touch(now)
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
}

// UpdateItemQuantity remplace la quantité; 0 retire la ligne.
// Retourne false si le produit n'est pas dans le panier.
func (c *Cart) UpdateItemQuantity(productID string, quantity int, now time.Time) bool {
	if quantity == 0 {
		return c.RemoveItem(productID, now)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch(now)
			return true
		}
	}
	return false
}

func (c *Cart) RemoveItem(productID string, now time.Time) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch(now)
			return true
		}
	}
	return false
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.touch(now)
}

func (c *Cart) touch(now time.Time) { c.UpdatedAt = now }

// CartLine est une ligne du panier enrichie depuis le catalogue.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartView struct {
	UserID    string          `json:"user_id"`
	Items     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}
