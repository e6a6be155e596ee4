package invoice

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce_back_end/internal/models"
)

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     gocql.TimeUUID(),
		UserID: "u1",
		Items: []models.OrderItem{
			{ProductID: "p1", Name: "Tasse <émaillée>", Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
		},
		Subtotal:        decimal.NewFromInt(20),
		Discount:        decimal.NewFromInt(2),
		TotalAmount:     decimal.NewFromInt(18),
		CouponCode:      "SAVE10",
		ShippingAddress: models.ShippingAddress{Street: "1 rue de la Paix", City: "Paris", Country: "FR"},
		Status:          models.StatusPending,
		CreatedAt:       time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestHTMLContainsTotalsAndEscapes(t *testing.T) {
	r := NewRenderer("https://shop.example.com/", false)
	order := sampleOrder()

	html, err := r.HTML(order, &models.User{Email: "a@b.c"})
	require.NoError(t, err)

	assert.Contains(t, html, "18.00 €")
	assert.Contains(t, html, "-2.00 €")
	assert.Contains(t, html, "SAVE10")
	assert.Contains(t, html, "Tasse &lt;émaillée&gt;")
	assert.Contains(t, html, "https://shop.example.com/orders/"+order.ID.String())
	assert.Contains(t, html, "data:image/png;base64,")
	assert.False(t, r.Enabled())
}

func TestQRCodeIsPNG(t *testing.T) {
	r := NewRenderer("http://localhost:3000", false)
	raw, err := r.QRCode("abc")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
