package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func limit(n int) *int { return &n }

func TestCalculateDiscount(t *testing.T) {
	now := *at("2026-06-15T12:00:00Z")

	tests := []struct {
		name   string
		coupon Coupon
		total  string
		want   string
	}{
		{
			name:   "pourcentage",
			coupon: Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(10)},
			total:  "20.00",
			want:   "2",
		},
		{
			name:   "pourcentage arrondi au centime",
			coupon: Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(15)},
			total:  "9.99",
			want:   "1.5",
		},
		{
			name:   "pourcentage plafonné",
			coupon: Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(50), MaxDiscount: dec("20")},
			total:  "100",
			want:   "20",
		},
		{
			name:   "montant fixe non plafonné au total",
			coupon: Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(50)},
			total:  "3",
			want:   "50",
		},
		{
			name:   "minimum d'achat non atteint",
			coupon: Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), MinPurchase: dec("30")},
			total:  "29.99",
			want:   "0",
		},
		{
			name:   "minimum d'achat atteint",
			coupon: Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(5), MinPurchase: dec("30")},
			total:  "30",
			want:   "5",
		},
		{
			name:   "pas encore commencé",
			coupon: Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(10), StartDate: at("2026-07-01T00:00:00Z")},
			total:  "100",
			want:   "0",
		},
		{
			name:   "expiré",
			coupon: Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(10), EndDate: at("2026-06-01T00:00:00Z")},
			total:  "100",
			want:   "0",
		},
		{
			name:   "limite d'utilisation atteinte",
			coupon: Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.NewFromInt(10), UsageLimit: limit(3), UsedCount: 3},
			total:  "100",
			want:   "0",
		},
		{
			name:   "type inconnu",
			coupon: Coupon{DiscountType: "bogo", DiscountValue: decimal.NewFromInt(10)},
			total:  "100",
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.CalculateDiscount(decimal.RequireFromString(tt.total), now)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "remise %s, attendu %s", got, tt.want)
		})
	}
}

func TestCouponIsValid(t *testing.T) {
	now := *at("2026-06-15T12:00:00Z")

	open := Coupon{}
	assert.True(t, open.IsValid(now))

	window := Coupon{StartDate: at("2026-06-15T12:00:00Z"), EndDate: at("2026-06-15T12:00:00Z")}
	assert.True(t, window.IsValid(now), "bornes incluses")
	assert.False(t, window.IsValid(now.Add(time.Second)))
	assert.False(t, window.IsValid(now.Add(-time.Second)))

	used := Coupon{UsageLimit: limit(2), UsedCount: 1}
	assert.True(t, used.IsValid(now))
	used.UsedCount = 2
	assert.False(t, used.IsValid(now))
	assert.True(t, used.Exhausted())
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	assert.Equal(t, "", NormalizeCode("   "))
}
