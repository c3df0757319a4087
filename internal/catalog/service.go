package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/metrics"
	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/mykafka"
	"github.com/Skotchmaster/pc_shop/internal/transport"
	"github.com/Skotchmaster/pc_shop/pkg/logging"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrNotFound             = errors.New("product not found")
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)

// SearchIndex is the optional full-text mirror of the catalog.
type SearchIndex interface {
	IndexProduct(ctx context.Context, prod *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo    *GormRepo
	Index   SearchIndex
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
}

type productEvent struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"productID"`
	Name      string    `json:"name,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	Price     float64   `json:"price,omitempty"`
	At        time.Time `json:"at"`
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get product %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get product by slug %q: %w", slug, ErrNotFound)
	}
	return p, err
}

func (s *CatalogService) GetProducts(ctx context.Context, f transport.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, f, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	prod := fromRequest(req)
	prod.ID = uuid.New()
	prod.Slug = Slugify(prod.Name)

	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, "product_created", prod)
	return prod, nil
}

// UpdateProduct replaces every editable field of the product with req.
// The slug comes from req when given, otherwise it is derived from the new name.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	prod := fromRequest(req)
	prod.ID = id
	prod.Slug = strings.TrimSpace(req.Slug)
	if prod.Slug == "" {
		prod.Slug = Slugify(prod.Name)
	}

	if err := s.Repo.ReplaceProduct(ctx, prod); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("update product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	s.afterWrite(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("delete product %s: %w", id, ErrNotFound)
		}
		return err
	}

	l := logging.FromContext(ctx)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id.String()); err != nil {
			l.Warn("search_unindex_error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, productEvent{Type: "product_deleted", ProductID: id, At: time.Now().UTC()})
	s.countMutation("delete")
	return nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.Repo.GetProducts(ctx, transport.ProductFilter{}, offset, limit)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func (s *CatalogService) afterWrite(ctx context.Context, kind string, prod *models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", prod.ID, "error", err)
		}
	}
	s.publish(ctx, productEvent{
		Type:      kind,
		ProductID: prod.ID,
		Name:      prod.Name,
		Slug:      prod.Slug,
		Price:     prod.Price,
		At:        time.Now().UTC(),
	})
	s.countMutation(strings.TrimPrefix(kind, "product_"))
}

func (s *CatalogService) publish(ctx context.Context, ev productEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, mykafka.TopicProductEvents, ev.ProductID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "type", ev.Type, "error", err)
	}
}

func (s *CatalogService) countMutation(op string) {
	if s.Metrics != nil {
		s.Metrics.ProductMutations.WithLabelValues(op).Inc()
	}
}

func validate(req transport.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Category != "" && !knownCategory(req.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}
	return nil
}

func fromRequest(req transport.ProductRequest) *models.Product {
	return &models.Product{
		Name:         strings.TrimSpace(req.Name),
		Category:     req.Category,
		Manufacturer: req.Manufacturer,
		Model:        req.Model,
		Price:        req.Price,
		Image:        req.Image,
		Image2:       req.Image2,
		Warranty:     req.Warranty,
		Promo:        req.Promo,
		Featured:     req.Featured,
		Specs:        req.Specs,
		Tags:         req.Tags,
	}
}
