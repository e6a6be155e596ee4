package memory

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

func TestAdjustStockRejectsNegative(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()
	p := &models.Product{ID: gocql.TimeUUID(), Name: "Tasse", Price: decimal.NewFromInt(8), Stock: 2}
	require.NoError(t, repo.Create(ctx, p))

	updated, err := repo.AdjustStock(ctx, p.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	_, err = repo.AdjustStock(ctx, p.ID, -1)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	_, err = repo.AdjustStock(ctx, gocql.TimeUUID(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdjustStockConcurrentDecrements(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()
	p := &models.Product{ID: gocql.TimeUUID(), Name: "Lampe", Stock: 10}
	require.NoError(t, repo.Create(ctx, p))

	var g errgroup.Group
	results := make(chan error, 25)
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := repo.AdjustStock(ctx, p.ID, -1)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 10, ok)

	final, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Stock)
}

func TestUpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()
	p := &models.Product{ID: gocql.TimeUUID(), Name: "Bol", Stock: 4}
	require.NoError(t, repo.Create(ctx, p))

	changed := *p
	changed.Name = "Grand bol"
	changed.Stock = 99
	require.NoError(t, repo.Update(ctx, &changed))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grand bol", got.Name)
	assert.Equal(t, 4, got.Stock)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Product{ID: gocql.TimeUUID(), CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	items, total, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, items, 2)

	items, _, err = repo.List(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedeemHonoursUsageLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository()
	limit := 1
	require.NoError(t, repo.Create(ctx, &models.Coupon{
		Code: "UNIQUE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(5), UsageLimit: &limit,
	}))

	c, err := repo.Redeem(ctx, "unique", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)

	_, err = repo.Redeem(ctx, "UNIQUE", time.Now())
	assert.True(t, apperr.Is(err, apperr.KindInvalidCoupon))

	require.NoError(t, repo.Release(ctx, "UNIQUE"))
	got, err := repo.Get(ctx, "UNIQUE")
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsedCount)
}

func TestCouponCreateConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository()
	c := &models.Coupon{Code: "DUP", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(1)}
	require.NoError(t, repo.Create(ctx, c))
	err := repo.Create(ctx, c)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestOrderStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := &models.Order{ID: gocql.TimeUUID(), UserID: "u1", Status: models.StatusPending}
	require.NoError(t, repo.Create(ctx, o))

	ok, err := repo.UpdateStatus(ctx, o.ID, models.StatusPending, models.StatusCancelled, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateStatus(ctx, o.ID, models.StatusPending, models.StatusShipped, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, &models.User{ID: "1", Email: "Alice@example.com"}))
	err := repo.Create(ctx, &models.User{ID: "2", Email: "alice@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	u, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
}

func TestTokenBlocklistExpires(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlocklist()
	require.NoError(t, b.Revoke(ctx, "jti-1", "u1", time.Hour))
	require.NoError(t, b.Revoke(ctx, "jti-2", "u1", -time.Second))

	revoked, err := b.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
