package scylla

import (
	"context"
	"time"

	"github.com/gocql/gocql"
	"gopkg.in/inf.v0"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/models"
)

type ProductRepository struct {
	session *gocql.Session
}

func NewProductRepository(session *gocql.Session) *ProductRepository {
	return &ProductRepository{session: session}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type iterScanner struct{ iter *gocql.Iter }

func (s iterScanner) Scan(dest ...interface{}) error {
	if !s.iter.Scan(dest...) {
		return gocql.ErrNotFound
	}
	return nil
}

func scanProduct(s scanner) (*models.Product, error) {
	var p models.Product
	var price *inf.Dec
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Stock,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Price = fromDec(price)
	return &p, nil
}

func (r *ProductRepository) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	p, err := scanProduct(r.session.Query(stmtGetProduct, id).WithContext(ctx))
	if err != nil {
		return nil, translate("products.get", "Produit", err)
	}
	return p, nil
}

// List parcourt la table page par page; Scylla n'a pas d'OFFSET.
func (r *ProductRepository) List(ctx context.Context, page, perPage int) ([]models.Product, int, error) {
	var total int
	if err := r.session.Query(stmtCountProducts).WithContext(ctx).Scan(&total); err != nil {
		return nil, 0, translate("products.count", "Produit", err)
	}

	skip := (page - 1) * perPage
	products := make([]models.Product, 0, perPage)
	iter := r.session.Query(stmtListProducts).WithContext(ctx).PageSize(perPage).Iter()
	s := iterScanner{iter}
	for len(products) < perPage {
		p, err := scanProduct(s)
		if err != nil {
			break
		}
		if skip > 0 {
			skip--
			continue
		}
		products = append(products, *p)
	}
	if err := iter.Close(); err != nil {
		return nil, 0, translate("products.list", "Produit", err)
	}
	return products, total, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	applied, err := r.session.Query(stmtInsertProduct,
		p.ID, p.Name, p.Description, toDec(p.Price), p.Category, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("products.create", "Produit", err)
	}
	if !applied {
		return apperr.Conflict("Produit déjà existant")
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	applied, err := r.session.Query(stmtUpdateProduct,
		p.Name, p.Description, toDec(p.Price), p.Category, p.ImageURL, p.UpdatedAt, p.ID,
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("products.update", "Produit", err)
	}
	if !applied {
		return apperr.NotFound("Produit")
	}
	return nil
}

// AdjustStock lit le stock puis tente un UPDATE ... IF stock = <lu>.
// En cas de conflit on relit et on recommence.
func (r *ProductRepository) AdjustStock(ctx context.Context, id gocql.UUID, delta int) (*models.Product, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		p, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if delta < -p.Stock {
			return nil, apperr.InsufficientStock(p.Name)
		}
		if delta > models.MaxQuantity-p.Stock {
			return nil, apperr.Validation("quantity", "Le stock dépasserait la limite autorisée")
		}
		next := p.Stock + delta

		now := time.Now().UTC()
		applied, err := r.casStock(ctx, id, p.Stock, next, now)
		if err != nil {
			return nil, err
		}
		if applied {
			p.Stock = next
			p.UpdatedAt = now
			return p, nil
		}
	}
	return nil, contention("products.adjust_stock")
}

func (r *ProductRepository) SetStock(ctx context.Context, id gocql.UUID, stock int) (int, error) {
	if stock < 0 {
		return 0, apperr.Validation("stock", "Le stock ne peut pas être négatif")
	}
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var current int
		var name string
		if err := r.session.Query(stmtGetStock, id).WithContext(ctx).Scan(&current, &name); err != nil {
			return 0, translate("products.set_stock", "Produit", err)
		}
		applied, err := r.casStock(ctx, id, current, stock, time.Now().UTC())
		if err != nil {
			return 0, err
		}
		if applied {
			return current, nil
		}
	}
	return 0, contention("products.set_stock")
}

func (r *ProductRepository) casStock(ctx context.Context, id gocql.UUID, expected, next int, now time.Time) (bool, error) {
	applied, err := r.session.Query(stmtCASStock, next, now, id, expected).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, translate("products.cas_stock", "Produit", err)
	}
	return applied, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id gocql.UUID) error {
	applied, err := r.session.Query(stmtDeleteProduct, id).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return translate("products.delete", "Produit", err)
	}
	if !applied {
		return apperr.NotFound("Produit")
	}
	return nil
}

type StockMovementRepository struct {
	session *gocql.Session
}

func NewStockMovementRepository(session *gocql.Session) *StockMovementRepository {
	return &StockMovementRepository{session: session}
}

func (r *StockMovementRepository) Record(ctx context.Context, m *models.StockMovement) error {
	err := r.session.Query(stmtInsertMovement,
		m.ProductID, m.ID, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.OrderID, m.UserID, m.CreatedAt,
	).WithContext(ctx).Exec()
	return translate("stock_movements.record", "Mouvement de stock", err)
}

func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID gocql.UUID, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	iter := r.session.Query(stmtListMovements, productID, limit).WithContext(ctx).Iter()

	var out []models.StockMovement
	for {
		m := models.StockMovement{ProductID: productID}
		var orderID *gocql.UUID
		if !iter.Scan(&m.ID, &m.Type, &m.Quantity, &m.PrevStock, &m.NewStock, &m.Reason, &orderID, &m.UserID, &m.CreatedAt) {
			break
		}
		m.OrderID = orderID
		out = append(out, m)
	}
	if err := iter.Close(); err != nil {
		return nil, translate("stock_movements.list", "Mouvement de stock", err)
	}
	return out, nil
}
