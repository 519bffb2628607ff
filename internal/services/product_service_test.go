package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/repo"
)

func TestProductService_Create_NormalizesText(t *testing.T) {
	svc := NewProductService(newTestDB(t), repoShim{}, time.Second)

	// "e" + combining acute accent composes to U+00E9 under NFC.
	out, err := svc.Create(context.Background(), &domain.Product{
		Name:        "  Cafe\u0301 mug ",
		Category:    " kitchen",
		Price:       decimal.NewNullDecimal(decimal.NewFromInt(5)),
		Description: "d ",
		IsOnSale:    true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.Name != "Caf\u00e9 mug" || out.Category != "kitchen" || out.Description != "d" {
		t.Fatalf("unexpected normalization: %+v", out)
	}
}

func TestProductService_ListAndGet(t *testing.T) {
	svc := NewProductService(newTestDB(t), repoShim{}, time.Second)
	ctx := context.Background()

	var saleID string
	for _, onSale := range []bool{true, false} {
		p, err := svc.Create(ctx, &domain.Product{
			Name: "p", Category: "c", Description: "d",
			Price:    decimal.NewNullDecimal(decimal.NewFromInt(1)),
			IsOnSale: onSale,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if onSale {
			saleID = p.ID
		}
	}

	sale, err := svc.List(ctx, false)
	if err != nil || len(sale) != 1 || sale[0].ID != saleID {
		t.Fatalf("on-sale list: err=%v got=%+v", err, sale)
	}
	all, err := svc.List(ctx, true)
	if err != nil || len(all) != 2 {
		t.Fatalf("all list: err=%v got=%+v", err, all)
	}

	got, err := svc.Get(ctx, " "+saleID+" ")
	if err != nil || got.ID != saleID {
		t.Fatalf("Get: err=%v got=%+v", err, got)
	}
}

func TestProductService_Get_Errors(t *testing.T) {
	svc := NewProductService(newTestDB(t), repoShim{}, time.Second)

	if _, err := svc.Get(context.Background(), uuid.NewString()); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "abc"); !repo.IsKind(err, repo.KindCastMismatch) {
		t.Fatalf("expected cast mismatch, got %v", err)
	}
}

func TestWithTimeout_NonPositiveIsUnbounded(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("expected no deadline")
	}
}
