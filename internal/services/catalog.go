package services

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"ecommerce_back_end/internal/apperr"
	"ecommerce_back_end/internal/cache"
	"ecommerce_back_end/internal/models"
	"ecommerce_back_end/internal/repository"
	"ecommerce_back_end/internal/search"
	"ecommerce_back_end/internal/storage"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// CatalogService porte les règles du catalogue : validation, cache,
// mouvements de stock, indexation et images.
type CatalogService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	cache     cache.Store
	index     search.Index
	images    storage.ImageStore

	lowStockThreshold int
	now               func() time.Time
}

type CatalogOption func(*CatalogService)

func WithSearchIndex(index search.Index) CatalogOption {
	return func(s *CatalogService) { s.index = index }
}

func WithImageStore(images storage.ImageStore) CatalogOption {
	return func(s *CatalogService) { s.images = images }
}

func WithLowStockThreshold(n int) CatalogOption {
	return func(s *CatalogService) { s.lowStockThreshold = n }
}

func NewCatalogService(products repository.ProductRepository, movements repository.StockMovementRepository,
	store cache.Store, opts ...CatalogOption) *CatalogService {
	if store == nil {
		store = cache.Noop{}
	}
	s := &CatalogService{
		products:          products,
		movements:         movements,
		cache:             store,
		lowStockThreshold: 5,
		now:               func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseProductID valide un identifiant reçu du client.
func ParseProductID(raw string) (gocql.UUID, error) {
	id, err := gocql.ParseUUID(raw)
	if err != nil {
		return gocql.UUID{}, apperr.Validation("product_id", "ID produit invalide")
	}
	return id, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func (s *CatalogService) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var cached models.Product
	if found, err := s.cache.Get(ctx, cache.ProductKey(id), &cached); err == nil && found {
		return s.withImageURL(ctx, &cached), nil
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.ProductKey(id), p); err != nil {
		log.Printf("⚠️ Cache produit non écrit: %v", err)
	}
	return s.withImageURL(ctx, p), nil
}

func (s *CatalogService) List(ctx context.Context, page, perPage int) (*models.ProductPage, error) {
	page, perPage = normalizePage(page, perPage)
	key := cache.ProductListKey(page, perPage)

	var cached models.ProductPage
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		s.withImageURLs(ctx, cached.Products)
		return &cached, nil
	}

	products, total, err := s.products.List(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	result := &models.ProductPage{Products: products, Total: total, Page: page, PerPage: perPage}
	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Printf("⚠️ Cache liste produits non écrit: %v", err)
	}

	out := *result
	out.Products = append([]models.Product(nil), products...)
	s.withImageURLs(ctx, out.Products)
	return &out, nil
}

func (s *CatalogService) Create(ctx context.Context, in models.ProductInput, actor string) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name", "Le nom est requis")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.Validation("price", "Le prix doit être supérieur à 0")
	}
	if err := checkStock("stock", in.Stock); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		ID:          gocql.TimeUUID(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("✅ Produit créé: %s (%s)", p.Name, p.ID)

	if p.Stock > 0 {
		s.recordMovement(ctx, p.ID, models.MovementRestock, p.Stock, 0, p.Stock, "Stock initial", nil, actor)
	}
	s.afterWrite(ctx, p)
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id gocql.UUID, upd models.ProductUpdate, actor string) (*models.Product, error) {
	if upd.IsEmpty() {
		return nil, apperr.Validation("body", "Aucun champ à mettre à jour")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperr.Validation("name", "Le nom ne peut pas être vide")
	}
	if upd.Price != nil && !upd.Price.IsPositive() {
		return nil, apperr.Validation("price", "Le prix doit être supérieur à 0")
	}
	if upd.Stock != nil {
		if err := checkStock("stock", *upd.Stock); err != nil {
			return nil, err
		}
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stock := upd.Stock
	upd.Stock = nil
	upd.Apply(p)
	p.UpdatedAt = s.now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	if stock != nil {
		prev, err := s.products.SetStock(ctx, id, *stock)
		if err != nil {
			return nil, err
		}
		p.Stock = *stock
		if prev != *stock {
			s.recordMovement(ctx, id, models.MovementAdjustment, *stock-prev, prev, *stock, "Mise à jour produit", nil, actor)
		}
	}

	s.afterWrite(ctx, p)
	return s.withImageURL(ctx, p), nil
}

// UpdateStock applique un réassort (delta positif) ou un ajustement absolu.
func (s *CatalogService) UpdateStock(ctx context.Context, id gocql.UUID, req models.StockUpdateRequest, actor string) (*models.Product, error) {
	switch req.Type {
	case models.MovementRestock:
		if req.Quantity <= 0 {
			return nil, apperr.Validation("quantity", "La quantité de réassort doit être positive")
		}
		if req.Quantity > models.MaxQuantity {
			return nil, tooLarge("quantity")
		}
		return s.AdjustStock(ctx, id, req.Quantity, models.MovementRestock, req.Reason, nil, actor)
	case models.MovementAdjustment:
		return s.SetStock(ctx, id, req.Quantity, req.Reason, actor)
	default:
		return nil, apperr.Validation("type", "Type d'opération invalide")
	}
}

func (s *CatalogService) SetStock(ctx context.Context, id gocql.UUID, stock int, reason, actor string) (*models.Product, error) {
	if err := checkStock("quantity", stock); err != nil {
		return nil, err
	}
	prev, err := s.products.SetStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}
	s.recordMovement(ctx, id, models.MovementAdjustment, stock-prev, prev, stock, reason, nil, actor)

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterStockChange(ctx, p)
	return s.withImageURL(ctx, p), nil
}

// AdjustStock applique delta de façon atomique; un résultat négatif est
// refusé avec InsufficientStock. Chaque variation est tracée.
func (s *CatalogService) AdjustStock(ctx context.Context, id gocql.UUID, delta int, movement, reason string,
	orderID *gocql.UUID, actor string) (*models.Product, error) {
	p, err := s.products.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.recordMovement(ctx, id, movement, delta, p.Stock-delta, p.Stock, reason, orderID, actor)
	s.afterStockChange(ctx, p)
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id gocql.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if err := cache.InvalidateProduct(ctx, s.cache, id); err != nil {
		log.Printf("⚠️ Invalidation cache produit %s: %v", id, err)
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			log.Printf("⚠️ Suppression index produit %s: %v", id, err)
		}
	}
	log.Printf("🗑️ Produit supprimé: %s", id)
	return nil
}

func (s *CatalogService) Movements(ctx context.Context, id gocql.UUID, limit int) ([]models.StockMovement, error) {
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.movements.ListByProduct(ctx, id, limit)
}

// Search interroge Elasticsearch, ou parcourt le catalogue s'il n'est pas configuré.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("q", "Le terme de recherche est requis")
	}
	if limit < 1 || limit > maxPerPage {
		limit = defaultPerPage
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, query, limit)
		if err == nil {
			products := make([]models.Product, 0, len(ids))
			for _, id := range ids {
				p, err := s.products.Get(ctx, id)
				if apperr.Is(err, apperr.KindNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				products = append(products, *p)
			}
			s.withImageURLs(ctx, products)
			return products, nil
		}
		log.Printf("⚠️ Recherche Elastic indisponible, repli sur la base: %v", err)
	}
	return s.scan(ctx, query, limit)
}

func (s *CatalogService) scan(ctx context.Context, query string, limit int) ([]models.Product, error) {
	needle := strings.ToLower(query)
	var out []models.Product
	for page := 1; len(out) < limit; page++ {
		batch, total, err := s.products.List(ctx, page, maxPerPage)
		if err != nil {
			return nil, err
		}
		for _, p := range batch {
			if strings.Contains(strings.ToLower(p.Name), needle) ||
				strings.Contains(strings.ToLower(p.Description), needle) ||
				strings.Contains(strings.ToLower(p.Category), needle) {
				out = append(out, p)
				if len(out) == limit {
					break
				}
			}
		}
		if page*maxPerPage >= total || len(batch) == 0 {
			break
		}
	}
	s.withImageURLs(ctx, out)
	return out, nil
}

// UploadImage range l'image dans MinIO et enregistre sa clé sur le produit.
func (s *CatalogService) UploadImage(ctx context.Context, id gocql.UUID, filename string, r io.Reader,
	size int64, contentType string) (*models.Product, error) {
	if s.images == nil {
		return nil, apperr.StoreUnavailable("images", errImagesDisabled)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.Validation("image", "Le fichier doit être une image")
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	key, err := s.images.Upload(ctx, storage.ImageKey(id.String(), filename), r, size, contentType)
	if err != nil {
		return nil, apperr.StoreUnavailable("images.upload", err)
	}

	p.ImageURL = key
	p.UpdatedAt = s.now()
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p)
	return s.withImageURL(ctx, p), nil
}

func (s *CatalogService) afterWrite(ctx context.Context, p *models.Product) {
	if err := cache.InvalidateProduct(ctx, s.cache, p.ID); err != nil {
		log.Printf("⚠️ Invalidation cache produit %s: %v", p.ID, err)
	}
	if s.index != nil {
		if err := s.index.Index(ctx, p); err != nil {
			log.Printf("⚠️ Indexation produit %s: %v", p.ID, err)
		}
	}
}

func (s *CatalogService) afterStockChange(ctx context.Context, p *models.Product) {
	s.afterWrite(ctx, p)
	s.checkLowStock(p)
}

func (s *CatalogService) checkLowStock(p *models.Product) {
	switch {
	case p.Stock == 0:
		log.Printf("🚨 Rupture de stock: %s (%s)", p.Name, p.ID)
	case p.Stock <= s.lowStockThreshold:
		log.Printf("⚠️ Stock bas: %s (%d restants)", p.Name, p.Stock)
	}
}

func (s *CatalogService) recordMovement(ctx context.Context, productID gocql.UUID, typ string, quantity, prev, next int,
	reason string, orderID *gocql.UUID, actor string) {
	m := &models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      typ,
		Quantity:  quantity,
		PrevStock: prev,
		NewStock:  next,
		Reason:    reason,
		OrderID:   orderID,
		UserID:    actor,
		CreatedAt: s.now(),
	}
	if err := s.movements.Record(ctx, m); err != nil {
		log.Printf("⚠️ Mouvement de stock non enregistré pour %s: %v", productID, err)
	}
}

// withImageURL remplace une clé MinIO par une URL signée.
func (s *CatalogService) withImageURL(ctx context.Context, p *models.Product) *models.Product {
	if s.images == nil || p.ImageURL == "" || storage.IsExternal(p.ImageURL) {
		return p
	}
	url, err := s.images.URL(ctx, p.ImageURL)
	if err != nil {
		log.Printf("⚠️ URL signée impossible pour %s: %v", p.ImageURL, err)
		return p
	}
	out := *p
	out.ImageURL = url
	return &out
}

func (s *CatalogService) withImageURLs(ctx context.Context, products []models.Product) {
	for i := range products {
		products[i] = *s.withImageURL(ctx, &products[i])
	}
}
