package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// ProductFilter narrows ListProducts. By default only on-sale products are
// returned; IncludeNotOnSale lifts that restriction.
type ProductFilter struct {
	IncludeNotOnSale bool
}

// CreateProduct validates and inserts a new product.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error) {
	const op = "products.create"
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.IsActive = true
	if err := validateModel(op, p); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, translate(op, err)
	}
	return p, nil
}

// ListProducts returns active products, newest first.
func ListProducts(ctx context.Context, db *gorm.DB, f ProductFilter) ([]domain.Product, error) {
	q := db.WithContext(ctx).Where("is_active = ?", true)
	if !f.IncludeNotOnSale {
		q = q.Where("is_on_sale = ?", true)
	}
	var out []domain.Product
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, translate("products.list", err)
	}
	return out, nil
}

// GetProduct fetches an active product by id. A malformed id yields a
// KindCastMismatch StoreError; a missing row yields ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	const op = "products.get"
	if _, err := uuid.Parse(id); err != nil {
		return nil, &StoreError{Kind: KindCastMismatch, Op: op, Field: "id", Value: id, Err: err}
	}
	var p domain.Product
	err := db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&p).Error
	if err != nil {
		return nil, translate(op, err)
	}
	return &p, nil
}
