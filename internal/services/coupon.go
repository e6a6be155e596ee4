package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
)

var couponDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

type CouponService struct {
	coupons repository.CouponRepository
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository) *CouponService {
	return &CouponService{coupons: coupons, now: func() time.Time { return time.Now().UTC() }}
}

func parseCouponDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range couponDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.Validation(field, "Date invalide, format ISO 8601 attendu")
}

// checkCoupon applique les règles communes à la création et à la mise à jour.
func checkCoupon(c *models.Coupon) error {
	if !c.DiscountType.Valid() {
		return apperr.Validation("discount_type", "Le type de remise doit être 'percentage' ou 'fixed'")
	}
	if !c.DiscountValue.IsPositive() {
		return apperr.Validation("discount_value", "La valeur de remise doit être supérieure à 0")
	}
	if c.DiscountType == models.DiscountPercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Validation("discount_value", "Un pourcentage ne peut pas dépasser 100")
	}
	if c.MinPurchase != nil && c.MinPurchase.IsNegative() {
		return apperr.Validation("min_purchase", "Le minimum d'achat ne peut pas être négatif")
	}
	if c.MaxDiscount != nil && !c.MaxDiscount.IsPositive() {
		return apperr.Validation("max_discount", "La remise maximale doit être supérieure à 0")
	}
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		return apperr.Validation("usage_limit", "La limite d'utilisation doit être supérieure à 0")
	}
	if c.StartDate != nil && c.EndDate != nil && !c.EndDate.After(*c.StartDate) {
		return apperr.Validation("end_date", "La date de fin doit être postérieure à la date de début")
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, in models.CouponInput) (*models.Coupon, error) {
	code := models.NormalizeCode(in.Code)
	if code == "" {
		return nil, apperr.Validation("code", "Le code est requis")
	}
	start, err := parseCouponDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseCouponDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Coupon{
		Code:          code,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		MinPurchase:   in.MinPurchase,
		MaxDiscount:   in.MaxDiscount,
		StartDate:     start,
		EndDate:       end,
		UsageLimit:    in.UsageLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := checkCoupon(c); err != nil {
		return nil, err
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("✅ Coupon créé: %s", c.Code)
	return c, nil
}

func (s *CouponService) Get(ctx context.Context, code string) (*models.Coupon, error) {
	return s.coupons.Get(ctx, models.NormalizeCode(code))
}

func (s *CouponService) List(ctx context.Context, page, perPage int) ([]models.Coupon, int, error) {
	page, perPage = normalizePage(page, perPage)
	return s.coupons.List(ctx, page, perPage)
}

// Update n'applique que les champs présents; un null explicite retire la
// contrainte correspondante.
func (s *CouponService) Update(ctx context.Context, code string, upd models.CouponUpdate) (*models.Coupon, error) {
	c, err := s.coupons.Get(ctx, models.NormalizeCode(code))
	if err != nil {
		return nil, err
	}

	if upd.DiscountType.Set {
		if upd.DiscountType.Null {
			return nil, apperr.Validation("discount_type", "Le type de remise est requis")
		}
		c.DiscountType = upd.DiscountType.Value
	}
	if upd.DiscountValue.Set {
		if upd.DiscountValue.Null {
			return nil, apperr.Validation("discount_value", "La valeur de remise est requise")
		}
		c.DiscountValue = upd.DiscountValue.Value
	}
	if upd.MinPurchase.Set {
		c.MinPurchase = upd.MinPurchase.Ptr()
	}
	if upd.MaxDiscount.Set {
		c.MaxDiscount = upd.MaxDiscount.Ptr()
	}
	if upd.UsageLimit.Set {
		c.UsageLimit = upd.UsageLimit.Ptr()
	}
	if upd.StartDate.Set {
		if c.StartDate, err = parseOptionalDate("start_date", upd.StartDate); err != nil {
			return nil, err
		}
	}
	if upd.EndDate.Set {
		if c.EndDate, err = parseOptionalDate("end_date", upd.EndDate); err != nil {
			return nil, err
		}
	}

	if err := checkCoupon(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.coupons.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func parseOptionalDate(field string, o models.Optional[string]) (*time.Time, error) {
	if o.Null {
		return nil, nil
	}
	return parseCouponDate(field, o.Value)
}

func (s *CouponService) Delete(ctx context.Context, code string) error {
	if err := s.coupons.Delete(ctx, models.NormalizeCode(code)); err != nil {
		return err
	}
	log.Printf("🗑️ Coupon supprimé: %s", models.NormalizeCode(code))
	return nil
}

// Validate calcule la remise sans consommer le coupon.
func (s *CouponService) Validate(ctx context.Context, code string, total decimal.Decimal) (*models.CouponValidation, error) {
	code = models.NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("code", "Le code est requis")
	}
	if total.IsNegative() {
		return nil, apperr.Validation("total", "Le total ne peut pas être négatif")
	}

	result := &models.CouponValidation{Code: code, Discount: decimal.Zero}
	c, err := s.coupons.Get(ctx, code)
	if apperr.Is(err, apperr.KindNotFound) {
		result.Message = "Coupon introuvable"
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case !c.IsValid(now):
		result.Message = "Coupon invalide ou expiré"
	case c.MinPurchase != nil && total.LessThan(*c.MinPurchase):
		result.Message = "Montant minimum d'achat non atteint: " + c.MinPurchase.StringFixed(2)
	default:
		result.IsValid = true
		result.Discount = c.CalculateDiscount(total, now)
	}
	return result, nil
}
