package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type CouponRepository struct {
	mu      sync.Mutex
	coupons map[string]models.Coupon
}

func NewCouponRepository() *CouponRepository {
	return &CouponRepository{coupons: make(map[string]models.Coupon)}
}

func (r *CouponRepository) Get(_ context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[models.NormalizeCode(code)]
	if !ok {
		return nil, apperr.NotFound("Coupon")
	}
	return &c, nil
}

func (r *CouponRepository) List(_ context.Context, page, perPage int) ([]models.Coupon, int, error) {
	r.mu.Lock()
	all := make([]models.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		all = append(all, c)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	start, end := repository.Paginate(page, perPage, len(all))
	return all[start:end], len(all), nil
}

func (r *CouponRepository) Create(_ context.Context, c *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.coupons[c.Code]; exists {
		return apperr.Conflict("Un coupon avec ce code existe déjà")
	}
	r.coupons[c.Code] = *c
	return nil
}

func (r *CouponRepository) Update(_ context.Context, c *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.coupons[c.Code]
	if !ok {
		return apperr.NotFound("Coupon")
	}
	updated := *c
	updated.UsedCount = current.UsedCount
	updated.CreatedAt = current.CreatedAt
	r.coupons[c.Code] = updated
	return nil
}

func (r *CouponRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = models.NormalizeCode(code)
	if _, ok := r.coupons[code]; !ok {
		return apperr.NotFound("Coupon")
	}
	delete(r.coupons, code)
	return nil
}

func (r *CouponRepository) Redeem(_ context.Context, code string, now time.Time) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[models.NormalizeCode(code)]
	if !ok || !c.IsValid(now) {
		return nil, apperr.InvalidCoupon()
	}
	c.UsedCount++
	c.UpdatedAt = now
	r.coupons[c.Code] = c
	return &c, nil
}

func (r *CouponRepository) Release(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[models.NormalizeCode(code)]
	if !ok {
		return apperr.NotFound("Coupon")
	}
	if c.UsedCount > 0 {
		c.UsedCount--
	}
	r.coupons[c.Code] = c
	return nil
}
