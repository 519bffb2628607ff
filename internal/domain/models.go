// Package domain defines the persistence models for products and failure
// logs. These types are mapped with GORM and form the core data layer of the
// API. JSON field names follow the public wire format (camelCase).
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Base carries the lifecycle fields shared by every persisted entity.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned at creation.
//   - IsActive: soft-delete flag; inactive rows are hidden from list queries.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Base struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	IsActive  bool      `json:"isActive"  gorm:"not null;default:true;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FailureLog is a persisted, structured description of a captured failure.
// Rows are written once and never receive new trace data afterwards; only the
// Base lifecycle fields may change.
//
// Fields:
//   - Message: human-readable summary (<= 1000 characters).
//   - Origin: FE, BE or OTHER.
//   - Trace: JSON value; either a {name,message,stack} object or a string.
//   - Path: request URL or symbolic process stage ("startup", "process.uncaughtException").
//   - Type: severity tier.
//   - UserInfo: optional reporter details, only sent by front-end reports.
//   - Metadata: free-form context (timestamp and environment are injected by the recorder).
type FailureLog struct {
	Base
	Message  string            `json:"message"            gorm:"type:varchar(1000);not null" validate:"required,max=1000"`
	Origin   Origin            `json:"origin"             gorm:"type:varchar(8);not null;index" validate:"required,oneof=FE BE OTHER"`
	Trace    datatypes.JSON    `json:"trace"              gorm:"not null" validate:"-"`
	Path     string            `json:"path"               gorm:"type:varchar(2048);not null" validate:"required"`
	Type     Severity          `json:"type"               gorm:"type:varchar(16);not null;default:'normal';index" validate:"required,oneof=critical normal warning info"`
	UserInfo datatypes.JSONMap `json:"userInfo,omitempty"`
	Metadata datatypes.JSONMap `json:"metadata,omitempty"`
}

// TableName returns the database table name for FailureLog.
func (FailureLog) TableName() string { return "failure_logs" }

// Product is a catalog item. Price is nullable at the type level so that a
// missing price can be told apart from a zero price during validation.
type Product struct {
	Base
	Name        string              `json:"name"        gorm:"type:varchar(200);not null;index" validate:"required,max=200"`
	Category    string              `json:"category"    gorm:"type:varchar(100);not null;index;index:idx_products_category_sale,priority:1" validate:"required,max=100"`
	Price       decimal.NullDecimal `json:"price"       gorm:"type:decimal(12,2);not null;index" validate:"-"`
	Description string              `json:"description" gorm:"type:text;not null" validate:"required,max=2000"`
	IsOnSale    bool                `json:"isOnSale"    gorm:"not null;default:false;index;index:idx_products_category_sale,priority:2"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }
