package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/models"
)

const fixtureCSV = `asin,title,imgUrl,productURL,stars,reviews,price,isBestSeller,boughtInLastMonth,categoryName
B001,Widget,img1,url1,4.5,100,£12.99,True,500,Gadgets
B002,Gizmo,img2,url2,,,,False,,Gadgets
B003,Doodad,img3,url3,3.0,notanumber,9.50,True,2.0,
B004,Thing,img4,url4,abc,5,£0.99,nope,7,Tools
`

func writeFixtureCSV(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "source.csv")
	if err := os.WriteFile(path, []byte(fixtureCSV), 0o644); err != nil {
		t.Fatalf("failed to write fixture CSV: %v", err)
	}
	return path
}

func testConfig(dir string, persistent bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		Storage: config.StorageConfig{
			DataDir:            dir,
			CSVPath:            filepath.Join(dir, "cache.csv"),
			DBPath:             filepath.Join(dir, "products.db"),
			PersistentOverride: persistent,
			DirWritable:        true,
		},
	}
}

func TestLoadCatalogCoercion(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixtureCSV(t, dir)
	cfg := testConfig(dir, false)

	conn, err := Connect(context.Background(), cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer Close(conn)

	count, err := RowCount(conn)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	// Raw load: no quality filter drops rows at ingest time.
	if count != 4 {
		t.Fatalf("expected 4 rows loaded, got %d", count)
	}

	var products []models.Product
	if err := conn.Order("asin").Find(&products).Error; err != nil {
		t.Fatalf("failed to read products: %v", err)
	}

	p1 := products[0]
	if p1.Stars == nil || *p1.Stars != 4.5 {
		t.Errorf("B001 stars: expected 4.5, got %v", p1.Stars)
	}
	if p1.Price == nil || *p1.Price != 12.99 {
		t.Errorf("B001 price: expected 12.99 after currency strip, got %v", p1.Price)
	}
	if !p1.IsBestSeller {
		t.Error("B001 should be a best seller")
	}
	if p1.Reviews == nil || *p1.Reviews != 100 {
		t.Errorf("B001 reviews: expected 100, got %v", p1.Reviews)
	}
	if p1.CategoryName == nil || *p1.CategoryName != "Gadgets" {
		t.Errorf("B001 category: expected Gadgets, got %v", p1.CategoryName)
	}

	p2 := products[1]
	if p2.Stars != nil || p2.Reviews != nil || p2.Price != nil || p2.BoughtInLastMonth != nil {
		t.Errorf("B002 blank numerics should load as NULL: %+v", p2)
	}

	p3 := products[2]
	if p3.Reviews != nil {
		t.Errorf("B003 unparseable reviews should be NULL, got %v", *p3.Reviews)
	}
	if p3.Price == nil || *p3.Price != 9.50 {
		t.Errorf("B003 price without symbol: expected 9.50, got %v", p3.Price)
	}
	if p3.CategoryName != nil {
		t.Errorf("B003 empty category should be NULL, got %v", *p3.CategoryName)
	}
	if p3.BoughtInLastMonth == nil || *p3.BoughtInLastMonth != 2 {
		t.Errorf("B003 float-formatted count: expected 2, got %v", p3.BoughtInLastMonth)
	}

	p4 := products[3]
	if p4.Stars != nil {
		t.Errorf("B004 unparseable stars should be NULL, got %v", *p4.Stars)
	}
	if p4.IsBestSeller {
		t.Error("B004 unparseable flag should load as false")
	}
}

func TestConnectPersistentReuse(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixtureCSV(t, dir)
	cfg := testConfig(dir, true)
	ctx := context.Background()

	conn, err := Connect(ctx, cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("initial Connect failed: %v", err)
	}
	Close(conn)

	if _, err := os.Stat(cfg.Storage.DBPath); err != nil {
		t.Fatalf("persistent database file not created: %v", err)
	}

	// Remove the CSV: a reconnect that still succeeds must be serving
	// from the persistent file, not reloading.
	if err := os.Remove(csvPath); err != nil {
		t.Fatalf("failed to remove CSV: %v", err)
	}

	conn, err = Connect(ctx, cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	defer Close(conn)

	count, err := RowCount(conn)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("reused store: expected 4 rows, got %d", count)
	}
}

func TestConnectDiscardsEmptyDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixtureCSV(t, dir)
	cfg := testConfig(dir, true)

	if err := os.WriteFile(cfg.Storage.DBPath, nil, 0o644); err != nil {
		t.Fatalf("failed to plant empty db file: %v", err)
	}

	conn, err := Connect(context.Background(), cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer Close(conn)

	count, err := RowCount(conn)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected rebuild from CSV, got %d rows", count)
	}
}

func TestConnectFallsBackToMemoryWhenNotWritable(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixtureCSV(t, dir)
	cfg := testConfig(dir, true)
	cfg.Storage.DirWritable = false

	if err := persistentAvailable(cfg); !errors.Is(err, apperr.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable for read-only dir, got %v", err)
	}

	conn, err := Connect(context.Background(), cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer Close(conn)

	if _, err := os.Stat(cfg.Storage.DBPath); !os.IsNotExist(err) {
		t.Error("no database file should be created in read-only mode")
	}

	count, err := RowCount(conn)
	if err != nil {
		t.Fatalf("RowCount failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("in-memory store: expected 4 rows, got %d", count)
	}
}

func TestPing(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFixtureCSV(t, dir)
	cfg := testConfig(dir, false)

	conn, err := Connect(context.Background(), cfg, dataset.FixedResolver{Path: csvPath})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := Ping(conn); err != nil {
		t.Errorf("Ping on live connection failed: %v", err)
	}

	Close(conn)
	if err := Ping(conn); err == nil {
		t.Error("Ping on closed connection should fail")
	}
}
