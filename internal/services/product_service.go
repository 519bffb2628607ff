// Package services – ProductService
//
// ProductService implements the product catalog use-cases. Free-text fields
// are trimmed and NFC-normalized before they reach the store so that
// visually identical names compare equal.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

// ProductRepo defines the repository contract required by ProductService.
type ProductRepo interface {
	CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context, db *gorm.DB, f repo.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error)
}

// ProductService provides product catalog operations.
type ProductService struct {
	DB   *gorm.DB
	Repo ProductRepo

	// Timeout bounds each store call (DB_SOCKET_TIMEOUT).
	Timeout time.Duration
}

// NewProductService constructs a ProductService.
func NewProductService(db *gorm.DB, r ProductRepo, timeout time.Duration) *ProductService {
	return &ProductService{DB: db, Repo: r, Timeout: timeout}
}

// Create normalizes and persists p.
func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("product.category", p.Category)),
	)
	defer span.End()

	p.Name = normalizeText(p.Name)
	p.Category = normalizeText(p.Category)
	p.Description = normalizeText(p.Description)

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Repo.CreateProduct(ctx, s.DB, p)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// List returns active products, newest first; only on-sale ones unless all
// is set.
func (s *ProductService) List(ctx context.Context, all bool) ([]domain.Product, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "List",
		trace.WithAttributes(attribute.Bool("products.all", all)),
	)
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	out, err := s.Repo.ListProducts(ctx, s.DB, repo.ProductFilter{IncludeNotOnSale: all})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

// Get returns one product. Missing products yield ErrProductNotFound; a
// malformed id surfaces as a cast-mismatch *repo.StoreError.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := otel.Tracer("services/ProductService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer span.End()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	p, err := s.Repo.GetProduct(ctx, s.DB, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return p, nil
}

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
