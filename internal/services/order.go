package services

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/shopspring/decimal"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/notifications"
	"ecommerce_back_end/internal/repository"
)

// Requester identifie l'appelant authentifié d'une opération.
type Requester struct {
	UserID string
	Role   string
}

func (r Requester) IsAdmin() bool { return r.Role == models.RoleAdmin }

func (r Requester) owns(o *models.Order) bool {
	return r.IsAdmin() || o.UserID == r.UserID
}

type OrderService struct {
	orders     repository.OrderRepository
	coupons    repository.CouponRepository
	products   repository.ProductRepository
	catalog    *CatalogService
	carts      *CartService
	dispatcher notifications.Dispatcher
	now        func() time.Time
}

func NewOrderService(orders repository.OrderRepository, coupons repository.CouponRepository, products repository.ProductRepository,
	catalog *CatalogService, carts *CartService, dispatcher notifications.Dispatcher) *OrderService {
	return &OrderService{
		orders:     orders,
		coupons:    coupons,
		products:   products,
		catalog:    catalog,
		carts:      carts,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type reservation struct {
	id       gocql.UUID
	quantity int
}

// Create transforme le panier en commande. Tout est vérifié avant la
// première écriture; chaque écriture réussie est compensée si une étape
// suivante échoue.
func (s *OrderService) Create(ctx context.Context, userID string, address models.ShippingAddress, couponCode string) (*models.Order, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperr.EmptyCart()
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, line := range cart.Items {
		if line.Quantity <= 0 || line.Quantity > models.MaxQuantity {
			return nil, apperr.Validation("quantity", "Quantité invalide dans le panier")
		}
		id, err := gocql.ParseUUID(line.ProductID)
		if err != nil {
			return nil, apperr.InsufficientStock(line.ProductID)
		}
		p, err := s.products.Get(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.InsufficientStock(line.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if p.Stock < line.Quantity {
			return nil, apperr.InsufficientStock(p.Name)
		}
		item := models.OrderItem{ProductID: line.ProductID, Name: p.Name, Quantity: line.Quantity, UnitPrice: p.Price}
		items = append(items, item)
		subtotal = subtotal.Add(item.Subtotal())
	}

	now := s.now()
	code := models.NormalizeCode(couponCode)
	discount := decimal.Zero
	if code != "" {
		c, err := s.coupons.Get(ctx, code)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.InvalidCoupon()
		}
		if err != nil {
			return nil, err
		}
		if !c.IsValid(now) {
			return nil, apperr.InvalidCoupon()
		}
		// seule la part réellement déduite est enregistrée
		discount = decimal.Min(c.CalculateDiscount(subtotal, now), subtotal)
	}
	total := subtotal.Sub(discount)

	order := &models.Order{
		ID:              gocql.TimeUUID(),
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		TotalAmount:     total,
		CouponCode:      code,
		ShippingAddress: address,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	reserved, err := s.reserve(ctx, order)
	if err != nil {
		return nil, err
	}

	if code != "" {
		if _, err := s.coupons.Redeem(ctx, code, now); err != nil {
			s.release(ctx, order, reserved)
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.InvalidCoupon()
			}
			return nil, err
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, order, reserved)
		if code != "" {
			if rerr := s.coupons.Release(context.WithoutCancel(ctx), code); rerr != nil {
				log.Printf("❌ Compensation coupon %s impossible: %v", code, rerr)
			}
		}
		return nil, err
	}
	log.Printf("✅ Commande créée: %s (%s €)", order.ID, order.TotalAmount.StringFixed(2))

	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("⚠️ Panier non vidé après la commande %s: %v", order.ID, err)
	}
	s.notify(ctx, notifications.NewJob(notifications.KindOrderConfirmation, userID, order.ID.String(), ""))
	return order, nil
}

// reserve décrémente le stock ligne par ligne; en cas d'échec, les lignes
// déjà réservées sont remises en stock.
func (s *OrderService) reserve(ctx context.Context, order *models.Order) ([]reservation, error) {
	reserved := make([]reservation, 0, len(order.Items))
	for _, item := range order.Items {
		id, _ := gocql.ParseUUID(item.ProductID)
		_, err := s.catalog.AdjustStock(ctx, id, -item.Quantity, models.MovementSale, "Commande", &order.ID, order.UserID)
		if err != nil {
			s.release(ctx, order, reserved)
			if apperr.Is(err, apperr.KindInsufficientStock) || apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.InsufficientStock(item.Name)
			}
			return nil, err
		}
		reserved = append(reserved, reservation{id: id, quantity: item.Quantity})
	}
	return reserved, nil
}

func (s *OrderService) release(ctx context.Context, order *models.Order, reserved []reservation) {
	ctx = context.WithoutCancel(ctx)
	for _, r := range reserved {
		if _, err := s.catalog.AdjustStock(ctx, r.id, r.quantity, models.MovementReturn, "Commande abandonnée", &order.ID, order.UserID); err != nil {
			log.Printf("❌ Compensation stock %s (+%d) impossible: %v", r.id, r.quantity, err)
		}
	}
}

// restock remet en stock les articles d'une commande annulée.
func (s *OrderService) restock(ctx context.Context, order *models.Order, actor string) {
	for _, item := range order.Items {
		id, err := gocql.ParseUUID(item.ProductID)
		if err != nil {
			continue
		}
		if _, err := s.catalog.AdjustStock(ctx, id, item.Quantity, models.MovementReturn, "Commande annulée", &order.ID, actor); err != nil {
			log.Printf("⚠️ Remise en stock %s impossible pour la commande %s: %v", item.ProductID, order.ID, err)
		}
	}
}

func (s *OrderService) GetByID(ctx context.Context, id gocql.UUID, requester Requester) (*models.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.owns(o) {
		return nil, apperr.Forbidden("Accès refusé à cette commande")
	}
	return o, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string, page, perPage int) (*models.OrderPage, error) {
	page, perPage = normalizePage(page, perPage)
	orders, total, err := s.orders.ListByUser(ctx, userID, page, perPage)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &models.OrderPage{Orders: orders, Total: total, Page: page, PerPage: perPage}, nil
}

// Cancel n'est possible que tant que la commande est en attente.
// L'utilisation du coupon n'est pas restituée.
func (s *OrderService) Cancel(ctx context.Context, id gocql.UUID, requester Requester) (*models.Order, error) {
	o, err := s.GetByID(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusPending {
		return nil, apperr.InvalidStatus(string(o.Status))
	}
	return s.transition(ctx, o, models.StatusCancelled, requester.UserID)
}

// UpdateStatus est réservé aux administrateurs; delivered et cancelled
// sont des statuts finaux.
func (s *OrderService) UpdateStatus(ctx context.Context, id gocql.UUID, status models.OrderStatus, requester Requester) (*models.Order, error) {
	if !requester.IsAdmin() {
		return nil, apperr.Forbidden("Accès réservé aux administrateurs")
	}
	if !status.Valid() {
		return nil, apperr.InvalidStatus(string(status))
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if o.Status.Terminal() {
		return nil, apperr.InvalidStatus(string(status))
	}
	return s.transition(ctx, o, status, requester.UserID)
}

func (s *OrderService) transition(ctx context.Context, o *models.Order, next models.OrderStatus, actor string) (*models.Order, error) {
	now := s.now()
	ok, err := s.orders.UpdateStatus(ctx, o.ID, o.Status, next, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("La commande a été modifiée entre-temps")
	}
	log.Printf("📦 Commande %s: %s → %s", o.ID, o.Status, next)

	o.Status = next
	o.UpdatedAt = now
	if next == models.StatusCancelled {
		s.restock(ctx, o, actor)
	}
	s.notify(ctx, notifications.NewJob(notifications.KindOrderStatusUpdate, o.UserID, o.ID.String(), string(next)))
	return o, nil
}

func (s *OrderService) notify(ctx context.Context, job *notifications.Job) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Enqueue(ctx, job); err != nil {
		log.Printf("⚠️ Notification %s non planifiée pour la commande %s: %v", job.Kind, job.OrderID, err)
	}
}
