// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind input, call application services,
// and write success envelopes through the response package. Failures are
// never written here; they are pushed onto the Gin error channel with abort
// and answered by the ErrorHandler middleware.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/services"
)

//
// Service contracts (context-aware)
//

// FailureLogService defines the failure log operations consumed by handlers.
type FailureLogService interface {
	Create(ctx context.Context, fl *domain.FailureLog) (*domain.FailureLog, error)
	List(ctx context.Context, typ, origin string) ([]domain.FailureLog, error)
	Stats(ctx context.Context) (*services.FailureLogStats, error)
}

// ProductService defines the product operations consumed by handlers.
type ProductService interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	List(ctx context.Context, all bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. Env is reported by the health check.
type Handlers struct {
	failures FailureLogService
	products ProductService
	env      string
}

// New constructs Handlers bound to the given services.
func New(failures FailureLogService, products ProductService, env string) *Handlers {
	return &Handlers{failures: failures, products: products, env: env}
}

// abort hands err to the ErrorHandler middleware and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(errors.WithStack(err))
	c.Abort()
}

//
// DTOs
//

// CreateFailureLogRequest is the JSON payload for reporting a failure.
type CreateFailureLogRequest struct {
	Message string        `json:"message" example:"TypeError: cannot read properties of undefined"`
	Origin  domain.Origin `json:"origin" enums:"FE,BE,OTHER" example:"FE"`
	// Trace is any JSON value: a stack string or a structured object.
	Trace    json.RawMessage `json:"trace" swaggertype:"string" example:"at render (app.js:10:5)"`
	Path     string          `json:"path" example:"/checkout"`
	Type     domain.Severity `json:"type" enums:"critical,normal,warning,info" example:"normal"`
	UserInfo map[string]any  `json:"userInfo,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

func (r CreateFailureLogRequest) model() *domain.FailureLog {
	return &domain.FailureLog{
		Message:  r.Message,
		Origin:   r.Origin,
		Trace:    []byte(r.Trace),
		Path:     r.Path,
		Type:     r.Type,
		UserInfo: r.UserInfo,
		Metadata: r.Metadata,
	}
}

// CreateProductRequest is the JSON payload for creating a product.
type CreateProductRequest struct {
	Name        string              `json:"name" example:"Espresso cup"`
	Category    string              `json:"category" example:"kitchen"`
	Price       decimal.NullDecimal `json:"price" swaggertype:"number" example:"12.5"`
	Description string              `json:"description" example:"Porcelain, 90ml"`
	IsOnSale    bool                `json:"isOnSale" example:"true"`
}

func (r CreateProductRequest) model() *domain.Product {
	return &domain.Product{
		Name:        r.Name,
		Category:    r.Category,
		Price:       r.Price,
		Description: r.Description,
		IsOnSale:    r.IsOnSale,
	}
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status      string `json:"status" example:"running"`
	Timestamp   string `json:"timestamp" example:"2025-01-01T00:00:00.000Z"`
	Environment string `json:"environment" example:"production"`
}

// Envelope documents the shared response body for Swagger.
type Envelope struct {
	Success    bool           `json:"success" example:"true"`
	Message    string         `json:"message" example:"Operation completed successfully"`
	Data       any            `json:"data,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}
