package scylla

import (
	"context"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

type CouponRepository struct {
	session *gocql.Session
}

func NewCouponRepository(session *gocql.Session) *CouponRepository {
	return &CouponRepository{session: session}
}

func scanCoupon(s scanner) (*models.Coupon, error) {
	var c models.Coupon
	var discountType string
	var value, minPurchase, maxDiscount *inf.Dec
	var startDate, endDate *time.Time
	var usageLimit *int
	if err := s.Scan(&c.Code, &discountType, &value, &minPurchase, &maxDiscount,
		&startDate, &endDate, &usageLimit, &c.UsedCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.DiscountType = models.DiscountType(discountType)
	c.DiscountValue = fromDec(value)
	c.MinPurchase = fromDecPtr(minPurchase)
	c.MaxDiscount = fromDecPtr(maxDiscount)
	c.StartDate = startDate
	c.EndDate = endDate
	c.UsageLimit = usageLimit
	return &c, nil
}

func (r *CouponRepository) Get(ctx context.Context, code string) (*models.Coupon, error) {
	c, err := scanCoupon(r.session.Query(stmtGetCoupon, models.NormalizeCode(code)).WithContext(ctx))
	if err != nil {
		return nil, translate("coupons.get", "Coupon", err)
	}
	return c, nil
}

func (r *CouponRepository) List(ctx context.Context, page, perPage int) ([]models.Coupon, int, error) {
	iter := r.session.Query(stmtListCoupons).WithContext(ctx).Iter()
	s := iterScanner{iter}

	var all []models.Coupon
	for {
		c, err := scanCoupon(s)
		if err != nil {
			break
		}
		all = append(all, *c)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, translate("coupons.list", "Coupon", err)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	start, end := repository.Paginate(page, perPage, len(all))
	return all[start:end], len(all), nil
}

func (r *CouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	applied, err := r.session.Query(stmtInsertCoupon,
		c.Code, string(c.DiscountType), toDec(c.DiscountValue), toDecPtr(c.MinPurchase), toDecPtr(c.MaxDiscount),
		c.StartDate, c.EndDate, c.UsageLimit, c.UsedCount, c.CreatedAt, c.UpdatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("coupons.create", "Coupon", err)
	}
	if !applied {
		return apperr.Conflict("Un coupon avec ce code existe déjà")
	}
	return nil
}

func (r *CouponRepository) Update(ctx context.Context, c *models.Coupon) error {
	applied, err := r.session.Query(stmtUpdateCoupon,
		string(c.DiscountType), toDec(c.DiscountValue), toDecPtr(c.MinPurchase), toDecPtr(c.MaxDiscount),
		c.StartDate, c.EndDate, c.UsageLimit, c.UpdatedAt, c.Code,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("coupons.update", "Coupon", err)
	}
	if !applied {
		return apperr.NotFound("Coupon")
	}
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	applied, err := r.session.Query(stmtDeleteCoupon, models.NormalizeCode(code)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("coupons.delete", "Coupon", err)
	}
	if !applied {
		return apperr.NotFound("Coupon")
	}
	return nil
}

// Redeem revérifie la validité à chaque tentative : deux commandes
// concurrentes ne peuvent pas dépasser usage_limit.
func (r *CouponRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		c, err := r.Get(ctx, code)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.InvalidCoupon()
		}
		if err != nil {
			return nil, err
		}
		if !c.IsValid(now) {
			return nil, apperr.InvalidCoupon()
		}

		applied, err := r.casUsage(ctx, c.Code, c.UsedCount, c.UsedCount+1, now)
		if err != nil {
			return nil, err
		}
		if applied {
			c.UsedCount++
			c.UpdatedAt = now
			return c, nil
		}
	}
	return nil, contention("coupons.redeem")
}

func (r *CouponRepository) Release(ctx context.Context, code string) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		c, err := r.Get(ctx, code)
		if err != nil {
			return err
		}
		if c.UsedCount == 0 {
			return nil
		}
		applied, err := r.casUsage(ctx, c.Code, c.UsedCount, c.UsedCount-1, time.Now().UTC())
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
	}
	return contention("coupons.release")
}

func (r *CouponRepository) casUsage(ctx context.Context, code string, expected, next int, now time.Time) (bool, error) {
	applied, err := r.session.Query(stmtCASCouponUsage, next, now, code, expected).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, translate("coupons.cas_usage", "Coupon", err)
	}
	return applied, nil
}
