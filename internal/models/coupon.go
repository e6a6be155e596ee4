package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

type Coupon struct {
	Code          string           `json:"code"`
	DiscountType  DiscountType     `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"` // pourcentage uniquement
	StartDate     *time.Time       `json:"start_date,omitempty"`
	EndDate       *time.Time       `json:"end_date,omitempty"`
	UsageLimit    *int             `json:"usage_limit,omitempty"`
	UsedCount     int              `json:"used_count"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NormalizeCode met le code en majuscules sans espaces.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted indique que la limite d'utilisation est atteinte.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// IsValid vérifie la fenêtre de validité et la limite d'utilisation.
// Une borne absente est considérée comme ouverte.
func (c *Coupon) IsValid(now time.Time) bool {
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return false
	}
	return !c.Exhausted()
}

// CalculateDiscount retourne 0 si le coupon est invalide ou si le minimum
// d'achat n'est pas atteint. Une remise fixe n'est pas plafonnée au total.
func (c *Coupon) CalculateDiscount(total decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) {
		return decimal.Zero
	}
	if c.MinPurchase != nil && total.LessThan(*c.MinPurchase) {
		return decimal.Zero
	}

	switch c.DiscountType {
	case DiscountPercentage:
		discount := total.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
		return discount.Round(2)
	case DiscountFixed:
		return c.DiscountValue
	default:
		return decimal.Zero
	}
}

// CouponInput est le corps de création; les dates sont au format ISO 8601.
type CouponInput struct {
	Code          string           `json:"code" binding:"required"`
	DiscountType  DiscountType     `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	UsageLimit    *int             `json:"usage_limit"`
}

// CouponUpdate distingue un champ absent d'un champ remis à null.
type CouponUpdate struct {
	DiscountType  Optional[DiscountType]    `json:"discount_type"`
	DiscountValue Optional[decimal.Decimal] `json:"discount_value"`
	MinPurchase   Optional[decimal.Decimal] `json:"min_purchase"`
	MaxDiscount   Optional[decimal.Decimal] `json:"max_discount"`
	StartDate     Optional[string]          `json:"start_date"`
	EndDate       Optional[string]          `json:"end_date"`
	UsageLimit    Optional[int]             `json:"usage_limit"`
}

type CouponValidation struct {
	Code     string          `json:"code"`
	IsValid  bool            `json:"is_valid"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message,omitempty"`
}
