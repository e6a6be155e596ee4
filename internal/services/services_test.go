package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/auth"
	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/notifications"
	"ecommerce_back_end/internal/repository"
	"ecommerce_back_end/internal/repository/memory"
)

var address = models.ShippingAddress{FullName: "Alice Martin", Street: "1 rue de la Paix", City: "Paris", PostalCode: "75002", Country: "FR"}

type env struct {
	store   *repository.Store
	cache   *cache.Memory
	queue   *notifications.ChannelQueue
	catalog *CatalogService
	coupons *CouponService
	carts   *CartService
	orders  *OrderService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: memory.NewStore(),
		cache: cache.NewMemory(time.Minute),
		queue: notifications.NewChannelQueue(100),
	}
	e.build()
	return e
}

func (e *env) build() {
	e.catalog = NewCatalogService(e.store.Products, e.store.Movements, e.cache)
	e.coupons = NewCouponService(e.store.Coupons)
	e.carts = NewCartService(e.store.Carts, e.store.Products, cache.NewLocalCartEvents())
	e.orders = NewOrderService(e.store.Orders, e.store.Coupons, e.store.Products, e.catalog, e.carts, e.queue)
}

func (e *env) product(t *testing.T, name string, price string, stock int) *models.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), models.ProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}, "admin")
	require.NoError(t, err)
	return p
}

func (e *env) stock(t *testing.T, id gocql.UUID) int {
	t.Helper()
	p, err := e.store.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCartRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "7.50", 10)

	_, err := e.carts.AddItem(ctx, "u1", p.ID.String(), 2)
	require.NoError(t, err)
	view, err := e.carts.AddItem(ctx, "u1", p.ID.String(), 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	total, err := e.carts.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("37.50")), total.String())

	view, err = e.carts.UpdateItem(ctx, "u1", p.ID.String(), 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "5", 3)

	_, err := e.carts.AddItem(ctx, "u1", p.ID.String(), 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 4)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	_, err = e.carts.AddItem(ctx, "u1", gocql.TimeUUID().String(), 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = e.carts.UpdateItem(ctx, "u1", p.ID.String(), -1)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.carts.RemoveItem(ctx, "u1", p.ID.String())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCartTotalSkipsDeletedProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	kept := e.product(t, "Tasse", "4", 5)
	gone := e.product(t, "Bol", "9", 5)

	_, err := e.carts.AddItem(ctx, "u1", kept.ID.String(), 1)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", gone.ID.String(), 1)
	require.NoError(t, err)
	require.NoError(t, e.catalog.Delete(ctx, gone.ID))

	total, err := e.carts.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(4)))
}

func TestCartPublishesEvents(t *testing.T) {
	e := newEnv(t)
	events := cache.NewLocalCartEvents()
	e.carts = NewCartService(e.store.Carts, e.store.Products, events)
	ctx := context.Background()
	p := e.product(t, "Tasse", "4", 5)

	ch, stop := events.Subscribe(ctx, "u1")
	defer stop()

	_, err := e.carts.AddItem(ctx, "u1", p.ID.String(), 1)
	require.NoError(t, err)
	require.NoError(t, e.carts.Clear(ctx, "u1"))

	assert.Equal(t, cache.CartUpdated, <-ch)
	assert.Equal(t, cache.CartCleared, <-ch)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.orders.Create(ctx, "u1", address, "")
	assert.True(t, apperr.Is(err, apperr.KindEmptyCart))

	page, err := e.orders.ListByUser(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, e.queue.Len())
}

func TestCreateOrderWithPercentageCoupon(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 5)
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "save10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 2)
	require.NoError(t, err)

	order, err := e.orders.Create(ctx, "u1", address, "SAVE10")
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("18.00")), order.TotalAmount.String())
	assert.True(t, order.Discount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 3, e.stock(t, p.ID))

	c, err := e.coupons.Get(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)

	cart, err := e.carts.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	job, err := e.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, notifications.KindOrderConfirmation, job.Kind)
	assert.Equal(t, order.ID.String(), job.OrderID)

	movements, err := e.catalog.Movements(ctx, p.ID, 10)
	require.NoError(t, err)
	var sold int
	for _, m := range movements {
		if m.Type == models.MovementSale {
			sold += -m.Quantity
			require.NotNil(t, m.OrderID)
			assert.Equal(t, order.ID, *m.OrderID)
		}
	}
	assert.Equal(t, 2, sold)
}

func TestCreateOrderFixedCouponClampsTotal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Stylo", "3", 5)
	_, err := e.coupons.Create(ctx, models.CouponInput{Code: "GIFT50", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(50)})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 1)
	require.NoError(t, err)

	order, err := e.orders.Create(ctx, "u1", address, "gift50")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, "3", order.Discount.String())
	assert.True(t, order.Subtotal.Sub(order.Discount).Equal(order.TotalAmount))
	assert.Equal(t, "GIFT50", order.CouponCode)
}

func TestCreateOrderBelowMinimumPurchase(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Carnet", "12", 5)
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "BIG30",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(5),
		MinPurchase:   decPtr("30"),
	})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 2)
	require.NoError(t, err)

	order, err := e.orders.Create(ctx, "u1", address, "BIG30")
	require.NoError(t, err)
	assert.True(t, order.Discount.IsZero())
	assert.Equal(t, "24", order.TotalAmount.String())

	c, err := e.store.Coupons.Get(ctx, "BIG30")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
}

func TestCartQuantityNeverOverflows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cable := e.product(t, "Câble", "90", 5)
	huge := e.product(t, "Palette", "1", models.MaxQuantity)

	_, err := e.carts.AddItem(ctx, "u1", cable.ID.String(), 1)
	require.NoError(t, err)

	_, err = e.carts.AddItem(ctx, "u1", cable.ID.String(), math.MaxInt)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = e.carts.AddItem(ctx, "u1", cable.ID.String(), models.MaxQuantity)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	_, err = e.carts.UpdateItem(ctx, "u1", cable.ID.String(), math.MaxInt)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.carts.AddItem(ctx, "u1", huge.ID.String(), models.MaxQuantity)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", huge.ID.String(), 1)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	cart, err := e.store.Carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity(cable.ID.String()))
	assert.Equal(t, models.MaxQuantity, cart.Quantity(huge.ID.String()))
}

func TestCreateOrderRejectsNonPositiveLine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tv := e.product(t, "Télé", "100", 5)
	cable := e.product(t, "Câble", "90", 5)

	// panier déjà corrompu en base
	cart := models.NewCart("u1", time.Now())
	cart.Items = []models.CartItem{
		{ProductID: tv.ID.String(), Quantity: 1},
		{ProductID: cable.ID.String(), Quantity: -1},
	}
	require.NoError(t, e.store.Carts.Save(ctx, cart))

	_, err := e.orders.Create(ctx, "u1", address, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "quantity", apperr.Field(err))

	assert.Equal(t, 5, e.stock(t, tv.ID))
	assert.Equal(t, 5, e.stock(t, cable.ID))
	_, total, err := e.store.Orders.ListByUser(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockStaysWithinColumnRange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.Create(ctx, models.ProductInput{Name: "Vis", Price: decimal.NewFromInt(1), Stock: models.MaxQuantity + 1}, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "stock", apperr.Field(err))

	p := e.product(t, "Vis", "1", 10)
	_, err = e.catalog.UpdateStock(ctx, p.ID, models.StockUpdateRequest{Quantity: models.MaxQuantity, Reason: "Réassort", Type: models.MovementRestock}, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = e.catalog.UpdateStock(ctx, p.ID, models.StockUpdateRequest{Quantity: models.MaxQuantity + 1, Reason: "Inventaire", Type: models.MovementAdjustment}, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	tooMany := models.MaxQuantity + 1
	_, err = e.catalog.Update(ctx, p.ID, models.ProductUpdate{Stock: &tooMany}, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, 10, e.stock(t, p.ID))
}

func TestCreateOrderRejectsInvalidCoupon(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 5)
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "OLD",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     "2020-01-01",
		EndDate:       "2020-02-01",
	})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 1)
	require.NoError(t, err)

	_, err = e.orders.Create(ctx, "u1", address, "OLD")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCoupon))
	_, err = e.orders.Create(ctx, "u1", address, "NOPE")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCoupon))
	assert.Equal(t, 5, e.stock(t, p.ID))
}

func TestCreateOrderValidatesEveryLineFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	plenty := e.product(t, "Tasse", "10", 10)
	scarce := e.product(t, "Théière", "30", 2)

	_, err := e.carts.AddItem(ctx, "u1", plenty.ID.String(), 3)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", scarce.ID.String(), 2)
	require.NoError(t, err)
	_, err = e.store.Products.SetStock(ctx, scarce.ID, 1)
	require.NoError(t, err)

	_, err = e.orders.Create(ctx, "u1", address, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))
	assert.Contains(t, apperr.Message(err), "Théière")
	assert.Equal(t, 10, e.stock(t, plenty.ID))
}

func TestCouponUsageLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 10)
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: decimal.NewFromInt(1),
		UsageLimit:    intPtr(1),
	})
	require.NoError(t, err)

	for _, user := range []string{"u1", "u2"} {
		_, err = e.carts.AddItem(ctx, user, p.ID.String(), 1)
		require.NoError(t, err)
	}

	_, err = e.orders.Create(ctx, "u1", address, "ONCE")
	require.NoError(t, err)
	_, err = e.orders.Create(ctx, "u2", address, "ONCE")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCoupon))

	c, err := e.coupons.Get(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
	assert.Equal(t, 9, e.stock(t, p.ID))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Édition limitée", "99", 1)

	const buyers = 20
	for i := 0; i < buyers; i++ {
		_, err := e.carts.AddItem(ctx, fmt.Sprintf("u%d", i), p.ID.String(), 1)
		require.NoError(t, err)
	}

	var placed, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < buyers; i++ {
		user := fmt.Sprintf("u%d", i)
		g.Go(func() error {
			_, err := e.orders.Create(ctx, user, address, "")
			switch {
			case err == nil:
				placed.Add(1)
			case apperr.Is(err, apperr.KindInsufficientStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), placed.Load())
	assert.Equal(t, int32(buyers-1), rejected.Load())
	assert.Equal(t, 0, e.stock(t, p.ID))
}

func TestStockIsConserved(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	products := []*models.Product{
		e.product(t, "Tasse", "5", 7),
		e.product(t, "Bol", "8", 4),
	}

	var g errgroup.Group
	for i := 0; i < 6; i++ {
		user := fmt.Sprintf("u%d", i)
		for _, p := range products {
			_, err := e.carts.AddItem(ctx, user, p.ID.String(), 1+i%2)
			require.NoError(t, err)
		}
		g.Go(func() error {
			_, err := e.orders.Create(ctx, user, address, "")
			if err != nil && !apperr.Is(err, apperr.KindInsufficientStock) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	initial := map[gocql.UUID]int{products[0].ID: 7, products[1].ID: 4}
	ordered := map[string]int{}
	for i := 0; i < 6; i++ {
		page, err := e.orders.ListByUser(ctx, fmt.Sprintf("u%d", i), 1, 10)
		require.NoError(t, err)
		for _, o := range page.Orders {
			for _, item := range o.Items {
				ordered[item.ProductID] += item.Quantity
			}
		}
	}
	for id, start := range initial {
		assert.Equal(t, start, e.stock(t, id)+ordered[id.String()])
	}
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) Create(context.Context, *models.Order) error {
	return apperr.StoreUnavailable("orders.create", errors.New("timeout"))
}

func TestCreateOrderCompensatesOnPersistFailure(t *testing.T) {
	e := newEnv(t)
	e.store.Orders = failingOrders{e.store.Orders}
	e.build()
	ctx := context.Background()
	a := e.product(t, "Tasse", "10", 5)
	b := e.product(t, "Bol", "12", 3)
	_, err := e.coupons.Create(ctx, models.CouponInput{Code: "SAVE10", DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", a.ID.String(), 2)
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", b.ID.String(), 3)
	require.NoError(t, err)

	_, err = e.orders.Create(ctx, "u1", address, "SAVE10")
	assert.True(t, apperr.Is(err, apperr.KindStoreUnavailable))

	assert.Equal(t, 5, e.stock(t, a.ID))
	assert.Equal(t, 3, e.stock(t, b.ID))
	c, err := e.coupons.Get(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Zero(t, c.UsedCount)
	cart, err := e.carts.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Zero(t, e.queue.Len())
}

type exhaustingCoupons struct {
	repository.CouponRepository
}

func (exhaustingCoupons) Redeem(context.Context, string, time.Time) (*models.Coupon, error) {
	return nil, apperr.InvalidCoupon()
}

func TestCreateOrderCompensatesOnRedeemFailure(t *testing.T) {
	e := newEnv(t)
	e.store.Coupons = exhaustingCoupons{e.store.Coupons}
	e.build()
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 5)
	_, err := e.coupons.Create(ctx, models.CouponInput{Code: "LAST", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(2)})
	require.NoError(t, err)
	_, err = e.carts.AddItem(ctx, "u1", p.ID.String(), 4)
	require.NoError(t, err)

	_, err = e.orders.Create(ctx, "u1", address, "LAST")
	assert.True(t, apperr.Is(err, apperr.KindInvalidCoupon))
	assert.Equal(t, 5, e.stock(t, p.ID))
}

func placeOrder(t *testing.T, e *env, user string, qty int) (*models.Order, *models.Product) {
	t.Helper()
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 5)
	_, err := e.carts.AddItem(ctx, user, p.ID.String(), qty)
	require.NoError(t, err)
	order, err := e.orders.Create(ctx, user, address, "")
	require.NoError(t, err)
	return order, p
}

func TestCancelPendingOrderRestocks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, p := placeOrder(t, e, "u1", 2)
	require.Equal(t, 3, e.stock(t, p.ID))

	_, err := e.orders.Cancel(ctx, order.ID, Requester{UserID: "intrus", Role: models.RoleCustomer})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	cancelled, err := e.orders.Cancel(ctx, order.ID, Requester{UserID: "u1", Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, e.stock(t, p.ID))
}

func TestCancelShippedOrderFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, p := placeOrder(t, e, "u1", 2)
	admin := Requester{UserID: "admin", Role: models.RoleAdmin}

	_, err := e.orders.UpdateStatus(ctx, order.ID, models.StatusShipped, admin)
	require.NoError(t, err)

	_, err = e.orders.Cancel(ctx, order.ID, Requester{UserID: "u1", Role: models.RoleCustomer})
	assert.True(t, apperr.Is(err, apperr.KindInvalidStatus))
	assert.Equal(t, 3, e.stock(t, p.ID))
}

func TestUpdateStatusRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, p := placeOrder(t, e, "u1", 1)
	admin := Requester{UserID: "admin", Role: models.RoleAdmin}
	_, _ = e.queue.Dequeue(ctx, time.Second)

	_, err := e.orders.UpdateStatus(ctx, order.ID, models.StatusShipped, Requester{UserID: "u1"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = e.orders.UpdateStatus(ctx, order.ID, "lost", admin)
	assert.True(t, apperr.Is(err, apperr.KindInvalidStatus))

	updated, err := e.orders.UpdateStatus(ctx, order.ID, models.StatusCancelled, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, 5, e.stock(t, p.ID))

	job, err := e.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, notifications.KindOrderStatusUpdate, job.Kind)
	assert.Equal(t, "cancelled", job.NewStatus)

	_, err = e.orders.UpdateStatus(ctx, order.ID, models.StatusPending, admin)
	assert.True(t, apperr.Is(err, apperr.KindInvalidStatus))
}

func TestGetOrderOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, _ := placeOrder(t, e, "u1", 1)

	_, err := e.orders.GetByID(ctx, order.ID, Requester{UserID: "u2", Role: models.RoleCustomer})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := e.orders.GetByID(ctx, order.ID, Requester{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = e.orders.GetByID(ctx, gocql.TimeUUID(), Requester{UserID: "u1"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCouponCreateValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := func() models.CouponInput {
		return models.CouponInput{Code: "X", DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)}
	}

	cases := map[string]func(*models.CouponInput){
		"discount_type":  func(in *models.CouponInput) { in.DiscountType = "bogo" },
		"discount_value": func(in *models.CouponInput) { in.DiscountValue = decimal.NewFromInt(150) },
		"usage_limit":    func(in *models.CouponInput) { in.UsageLimit = intPtr(0) },
		"min_purchase":   func(in *models.CouponInput) { in.MinPurchase = decPtr("-1") },
		"max_discount":   func(in *models.CouponInput) { in.MaxDiscount = decPtr("0") },
		"end_date":       func(in *models.CouponInput) { in.StartDate, in.EndDate = "2030-02-01", "2030-01-01" },
		"start_date":     func(in *models.CouponInput) { in.StartDate = "demain" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := base()
			mutate(&in)
			_, err := e.coupons.Create(ctx, in)
			require.True(t, apperr.Is(err, apperr.KindValidation), "%v", err)
			assert.Equal(t, field, apperr.Field(err))
		})
	}

	_, err := e.coupons.Create(ctx, base())
	require.NoError(t, err)
	_, err = e.coupons.Create(ctx, base())
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCouponUpdateClearsFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "WINTER",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		MaxDiscount:   decPtr("15"),
		UsageLimit:    intPtr(100),
	})
	require.NoError(t, err)

	updated, err := e.coupons.Update(ctx, "winter", models.CouponUpdate{
		MaxDiscount:   models.Optional[decimal.Decimal]{Set: true, Null: true},
		DiscountValue: models.Optional[decimal.Decimal]{Set: true, Value: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxDiscount)
	require.NotNil(t, updated.UsageLimit)
	assert.Equal(t, 100, *updated.UsageLimit)
	assert.True(t, updated.DiscountValue.Equal(decimal.NewFromInt(25)))
}

func TestCouponValidate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.coupons.Create(ctx, models.CouponInput{
		Code:          "BIG",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(50),
		MinPurchase:   decPtr("100"),
		MaxDiscount:   decPtr("30"),
	})
	require.NoError(t, err)

	res, err := e.coupons.Validate(ctx, "big", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.False(t, res.IsValid)

	res, err = e.coupons.Validate(ctx, "big", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(30)))

	res, err = e.coupons.Validate(ctx, "absent", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestCatalogCacheInvalidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Tasse", "10", 5)

	_, err := e.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = e.catalog.List(ctx, 1, 20)
	require.NoError(t, err)
	require.True(t, e.cache.Has(cache.ProductKey(p.ID)))
	require.True(t, e.cache.Has(cache.ProductListKey(1, 20)))

	_, err = e.catalog.AdjustStock(ctx, p.ID, -1, models.MovementSale, "test", nil, "u1")
	require.NoError(t, err)
	assert.False(t, e.cache.Has(cache.ProductKey(p.ID)))
	assert.False(t, e.cache.Has(cache.ProductListKey(1, 20)))

	got, err := e.catalog.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)
}

func TestCatalogValidationAndStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.Create(ctx, models.ProductInput{Name: " ", Price: decimal.NewFromInt(1)}, "admin")
	assert.Equal(t, "name", apperr.Field(err))
	_, err = e.catalog.Create(ctx, models.ProductInput{Name: "Gratuit", Price: decimal.Zero}, "admin")
	assert.Equal(t, "price", apperr.Field(err))

	p := e.product(t, "Tasse", "10", 5)
	_, err = e.catalog.Update(ctx, p.ID, models.ProductUpdate{}, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.catalog.AdjustStock(ctx, p.ID, -6, models.MovementSale, "test", nil, "u1")
	assert.True(t, apperr.Is(err, apperr.KindInsufficientStock))

	restocked, err := e.catalog.UpdateStock(ctx, p.ID, models.StockUpdateRequest{Quantity: 10, Reason: "Livraison", Type: models.MovementRestock}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 15, restocked.Stock)

	adjusted, err := e.catalog.UpdateStock(ctx, p.ID, models.StockUpdateRequest{Quantity: 2, Reason: "Inventaire", Type: models.MovementAdjustment}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, adjusted.Stock)

	movements, err := e.catalog.Movements(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}

func TestCatalogSearchFallsBackToScan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.product(t, "Tasse en grès", "10", 5)
	e.product(t, "Bol", "8", 5)

	found, err := e.catalog.Search(ctx, "grès", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Tasse en grès", found[0].Name)

	_, err = e.catalog.Search(ctx, "  ", 10)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func newAuth(store *repository.Store) *AuthService {
	tokens := auth.NewTokenManager("secret-de-test", time.Hour, 24*time.Hour)
	return NewAuthService(store.Users, store.Tokens, tokens, []string{"boss@example.com"})
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	store := memory.NewStore()
	svc := newAuth(store)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, models.RegisterRequest{Email: "Alice@Example.com", Password: "motdepasse", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, models.RoleCustomer, u.Role)
	assert.NotEqual(t, "motdepasse", u.Password)

	_, _, err = svc.Register(ctx, models.RegisterRequest{Email: "alice@example.com", Password: "autrechose"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, _, err = svc.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "mauvais"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, pair, err = svc.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "motdepasse"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = svc.Authenticate(ctx, pair.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	require.NoError(t, svc.Logout(ctx, claims, pair.RefreshToken))
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestAuthAdminAndOAuth(t *testing.T) {
	store := memory.NewStore()
	svc := newAuth(store)
	ctx := context.Background()

	boss, _, err := svc.Register(ctx, models.RegisterRequest{Email: "boss@example.com", Password: "motdepasse"})
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin())

	first, _, err := svc.OAuthLogin(ctx, "google", "g-1", "bob@example.com", "Bob")
	require.NoError(t, err)
	again, pair, err := svc.OAuthLogin(ctx, "google", "g-1", "BOB@example.com", "Bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(ctx, models.LoginRequest{Email: "bob@example.com", Password: "nimportequoi"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	name := "Robert"
	updated, err := svc.UpdateMe(ctx, first.ID, models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
}

func TestAuthenticateReadsCurrentRole(t *testing.T) {
	store := memory.NewStore()
	svc := newAuth(store)
	ctx := context.Background()

	boss, pair, err := svc.Register(ctx, models.RegisterRequest{Email: "boss@example.com", Password: "motdepasse"})
	require.NoError(t, err)
	claims, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	boss.Role = models.RoleCustomer
	require.NoError(t, store.Users.Update(ctx, boss))

	claims, err = svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}
