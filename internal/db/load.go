/**
 * @description
 * CSV ingest for the catalog table.
 * Streams the source CSV into the amazon_products table in batches with
 * explicit per-column type coercion: numeric casts, boolean cast, and
 * currency-symbol stripping on price. Unparseable numerics load as NULL.
 *
 * @dependencies
 * - encoding/csv
 * - gorm.io/gorm (CreateInBatches)
 * - backend/internal/dataset
 * - backend/internal/models
 */

package db

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/logger"
	"github.com/shelfstats/backend/internal/models"
)

const loadBatchSize = 2000

// Source CSV column names (external collaborator contract).
const (
	colASIN              = "asin"
	colTitle             = "title"
	colImgURL            = "imgUrl"
	colProductURL        = "productURL"
	colStars             = "stars"
	colReviews           = "reviews"
	colPrice             = "price"
	colIsBestSeller      = "isBestSeller"
	colBoughtInLastMonth = "boughtInLastMonth"
	colCategoryName      = "categoryName"
)

// LoadCatalog rebuilds the catalog table from the resolved CSV source.
// The existing table is dropped first; load is all-or-nothing from the
// caller's point of view (a failed load returns an error and the
// connection is discarded by Connect).
func LoadCatalog(ctx context.Context, db *gorm.DB, resolver dataset.Resolver) error {
	csvPath, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).Exec("DROP TABLE IF EXISTS amazon_products").Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		return err
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return err
	}
	cols := headerIndex(header)

	batch := make([]models.Product, 0, loadBatchSize)
	var total int64

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := db.WithContext(ctx).CreateInBatches(batch, 500).Error; err != nil {
			return err
		}
		total += int64(len(batch))
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// skip malformed rows
			continue
		}

		batch = append(batch, decodeProduct(row, cols))
		if len(batch) == loadBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("Loaded %d records into catalog store", total)
	return nil
}

// headerIndex maps trimmed column names to their positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func decodeProduct(row []string, cols map[string]int) models.Product {
	return models.Product{
		ASIN:              field(row, cols, colASIN),
		Title:             field(row, cols, colTitle),
		ImgURL:            field(row, cols, colImgURL),
		ProductURL:        field(row, cols, colProductURL),
		Stars:             parseFloatPtr(field(row, cols, colStars)),
		Reviews:           parseIntPtr(field(row, cols, colReviews)),
		Price:             parsePrice(field(row, cols, colPrice)),
		IsBestSeller:      parseBool(field(row, cols, colIsBestSeller)),
		BoughtInLastMonth: parseIntPtr(field(row, cols, colBoughtInLastMonth)),
		CategoryName:      stringPtr(field(row, cols, colCategoryName)),
	}
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntPtr(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports carry counts as "1.0"; fall back through float.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			n := int64(f)
			return &n
		}
		return nil
	}
	return &v
}

// parsePrice strips the currency prefix before the numeric cast.
func parsePrice(s string) *float64 {
	s = strings.TrimPrefix(s, "£")
	return parseFloatPtr(strings.TrimSpace(s))
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
