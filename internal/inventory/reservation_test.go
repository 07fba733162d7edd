package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)&mode=memory"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Hand-written schema: the model carries postgres defaults sqlite
	// cannot parse.
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  name TEXT NOT NULL,
  category TEXT,
  price_cents INTEGER NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(products).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM products")
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, available bool) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:            uuid.New(),
		Name:          "Instant Noodles",
		PriceCents:    2000,
		StockQuantity: stock,
		IsAvailable:   available,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	// GORM omits the zero-value false on Create because IsAvailable
	// carries default:true, so write it explicitly.
	if !available {
		if err := db.Exec("UPDATE products SET is_available = 0 WHERE id = ?", product.ID).Error; err != nil {
			t.Fatalf("seed product availability: %v", err)
		}
	}
	return product.ID
}

func TestReserveDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5, true)
	productB := seedProduct(t, db, 2, true)

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Reserve(ctx, tx, []ReservationRequest{
			{ProductID: productA, Qty: 3},
			{ProductID: productB, Qty: 1},
		})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var a, b models.Product
	if err := db.First(&a, "id = ?", productA).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if err := db.First(&b, "id = ?", productB).Error; err != nil {
		t.Fatalf("load product b: %v", err)
	}
	if a.StockQuantity != 2 {
		t.Fatalf("expected stock 2 got %d", a.StockQuantity)
	}
	if b.StockQuantity != 1 {
		t.Fatalf("expected stock 1 got %d", b.StockQuantity)
	}
}

func TestReserveRejectsWholeBatchOnShortage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	productA := seedProduct(t, db, 5, true)
	productB := seedProduct(t, db, 1, true)

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Reserve(ctx, tx, []ReservationRequest{
			{ProductID: productA, Qty: 2},
			{ProductID: productB, Qty: 3},
		})
	})
	if err == nil {
		t.Fatal("expected shortage error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error %v", err)
	}

	// The failed transaction must leave both rows untouched.
	var a models.Product
	if err := db.First(&a, "id = ?", productA).Error; err != nil {
		t.Fatalf("load product a: %v", err)
	}
	if a.StockQuantity != 5 {
		t.Fatalf("expected stock restored to 5 got %d", a.StockQuantity)
	}
}

func TestReserveRejectsUnavailableProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 10, false)

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Reserve(ctx, tx, []ReservationRequest{{ProductID: product, Qty: 1}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Reserve(ctx, tx, []ReservationRequest{{ProductID: uuid.New(), Qty: 1}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 5, true)

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Reserve(ctx, tx, []ReservationRequest{{ProductID: product, Qty: 0}})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 2, true)

	mgr := NewManager()
	err := db.Transaction(func(tx *gorm.DB) error {
		return mgr.Release(ctx, tx, product, 3)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	var p models.Product
	if err := db.First(&p, "id = ?", product).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if p.StockQuantity != 5 {
		t.Fatalf("expected stock 5 got %d", p.StockQuantity)
	}
}

func TestReleaseNoopOnZeroQty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 2, true)

	mgr := NewManager()
	if err := mgr.Release(ctx, db, product, 0); err != nil {
		t.Fatalf("release noop: %v", err)
	}
}
