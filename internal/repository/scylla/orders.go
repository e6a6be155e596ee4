package scylla

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

// OrderRepository écrit orders et orders_by_user dans un même batch logué.
// Les lignes et l'adresse sont sérialisées en JSON.
type OrderRepository struct {
	session *gocql.Session
}

func NewOrderRepository(session *gocql.Session) *OrderRepository {
	return &OrderRepository{session: session}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return apperr.Internal("orders.create", err)
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return apperr.Internal("orders.create", err)
	}

	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(stmtInsertOrder,
		o.ID, o.UserID, string(items), toDec(o.Subtotal), toDec(o.Discount), toDec(o.TotalAmount),
		o.CouponCode, string(address), string(o.Status), o.CreatedAt, o.UpdatedAt)
	batch.Query(stmtInsertOrderByUser, o.UserID, o.CreatedAt, o.ID)

	return translate("orders.create", "Commande", r.session.ExecuteBatch(batch))
}

func (r *OrderRepository) Get(ctx context.Context, id gocql.UUID) (*models.Order, error) {
	var o models.Order
	var items, address, status string
	var subtotal, discount, total *inf.Dec
	if err := r.session.Query(stmtGetOrder, id).WithContext(ctx).Scan(
		&o.ID, &o.UserID, &items, &subtotal, &discount, &total,
		&o.CouponCode, &address, &status, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, translate("orders.get", "Commande", err)
	}

	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, apperr.Internal("orders.get", err)
	}
	if address != "" {
		if err := json.Unmarshal([]byte(address), &o.ShippingAddress); err != nil {
			return nil, apperr.Internal("orders.get", err)
		}
	}
	o.Subtotal = fromDec(subtotal)
	o.Discount = fromDec(discount)
	o.TotalAmount = fromDec(total)
	o.Status = models.OrderStatus(status)
	return &o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]models.Order, int, error) {
	var total int
	if err := r.session.Query(stmtCountUserOrders, userID).WithContext(ctx).Scan(&total); err != nil {
		return nil, 0, translate("orders.count", "Commande", err)
	}

	skip := (page - 1) * perPage
	var ids []gocql.UUID
	iter := r.session.Query(stmtListUserOrders, userID).WithContext(ctx).PageSize(perPage).Iter()
	var id gocql.UUID
	for len(ids) < perPage && iter.Scan(&id) {
		if skip > 0 {
			skip--
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, translate("orders.list", "Commande", err)
	}

	orders := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.Get(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id gocql.UUID, expected, next models.OrderStatus, now time.Time) (bool, error) {
	existing := map[string]interface{}{}
	applied, err := r.session.Query(stmtCASOrderStatus, string(next), now, id, string(expected)).
		WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return false, translate("orders.update_status", "Commande", err)
	}
	if !applied {
		if current, _ := existing["status"].(string); current == "" {
			return false, apperr.NotFound("Commande")
		}
	}
	return applied, nil
}
