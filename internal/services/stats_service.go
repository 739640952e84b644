/**
 * @description
 * Query layer: descriptive statistics over the catalog table.
 * Parameterized read-only aggregates plus a two-stage z-score outlier
 * computation (per-category means in SQL, cross-category normalization
 * in Go).
 *
 * @dependencies
 * - gorm.io/gorm (raw SQL via Raw/Scan)
 * - backend/internal/apperr
 * - backend/internal/models
 *
 * @notes
 * - SQLite has no STDDEV/VAR_POP, so variance is computed as
 *   AVG(x*x) - AVG(x)*AVG(x), which is the population variance by
 *   construction, and the square root is applied after scanning.
 * - All engine failures are re-raised as apperr.QueryError; callers
 *   never see the raw driver error type.
 */

package services

import (
	"context"
	"math"
	"sort"

	"gorm.io/gorm"

	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/models"
)

// Parameter bounds for caller-supplied arguments. Out-of-range values
// are rejected, never clamped.
const (
	MinZThreshold = 0.0
	MaxZThreshold = 5.0
	MinLimit      = 1
	MaxLimit      = 100
)

type StatsService struct {
	Catalog         StoreView
	MinCategorySize int
}

func NewStatsService(catalog StoreView, cfg *config.Config) *StatsService {
	return &StatsService{
		Catalog:         catalog,
		MinCategorySize: cfg.Analytics.MinCategorySize,
	}
}

// CategoryStats returns count, mean, population standard deviation and
// population variance per qualifying category, best-rated first.
func (s *StatsService) CategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	query := `
		SELECT
			category_name,
			AVG(stars) AS average_rating,
			AVG(stars * stars) - AVG(stars) * AVG(stars) AS variance,
			COUNT(*) AS product_count
		FROM amazon_products
		WHERE stars IS NOT NULL AND category_name IS NOT NULL
		GROUP BY category_name
		HAVING COUNT(*) >= ?
		ORDER BY average_rating DESC`

	var rows []models.CategoryStats
	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		if err := conn.WithContext(ctx).Raw(query, s.MinCategorySize).Scan(&rows).Error; err != nil {
			return apperr.Query("category_stats", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Variance = clampVariance(rows[i].Variance)
		rows[i].StandardDeviation = math.Sqrt(rows[i].Variance)
	}
	if rows == nil {
		rows = []models.CategoryStats{}
	}
	return rows, nil
}

// ZScoreOutliers flags categories whose mean rating deviates from the
// mean of all qualifying category means by at least threshold standard
// deviations. The z-score is a second-order statistic: it normalizes
// over the distribution of category means, not over raw ratings.
func (s *StatsService) ZScoreOutliers(ctx context.Context, threshold float64) ([]models.ZScoreOutlier, error) {
	// NaN compares false against both bounds, so it needs its own check.
	if math.IsNaN(threshold) || threshold < MinZThreshold || threshold > MaxZThreshold {
		return nil, apperr.Invalid("threshold must be between %g and %g, got %g", MinZThreshold, MaxZThreshold, threshold)
	}

	query := `
		SELECT
			category_name,
			AVG(stars) AS average_rating,
			COUNT(*) AS product_count
		FROM amazon_products
		WHERE stars IS NOT NULL AND category_name IS NOT NULL
		GROUP BY category_name
		HAVING COUNT(*) >= ?`

	var categories []struct {
		CategoryName  string
		AverageRating float64
		ProductCount  int64
	}
	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		if err := conn.WithContext(ctx).Raw(query, s.MinCategorySize).Scan(&categories).Error; err != nil {
			return apperr.Query("z_score_outliers", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outliers := []models.ZScoreOutlier{}
	if len(categories) == 0 {
		return outliers, nil
	}

	means := make([]float64, len(categories))
	for i, c := range categories {
		means[i] = c.AverageRating
	}
	crossMean, crossStddev := populationStats(means)

	// All category means identical: z-scores are undefined, so no
	// category is an outlier. Never emit NaN/Inf.
	if crossStddev == 0 {
		return outliers, nil
	}

	for _, c := range categories {
		z := (c.AverageRating - crossMean) / crossStddev
		if math.Abs(z) < threshold {
			continue
		}
		outliers = append(outliers, models.ZScoreOutlier{
			CategoryName:  c.CategoryName,
			AverageRating: c.AverageRating,
			ZScore:        z,
			GlobalAverage: crossMean,
			ProductCount:  c.ProductCount,
			IsHighOutlier: z > threshold,
			IsLowOutlier:  z < -threshold,
		})
	}

	sort.Slice(outliers, func(i, j int) bool {
		return math.Abs(outliers[i].ZScore) > math.Abs(outliers[j].ZScore)
	})
	return outliers, nil
}

// HighVariability returns the categories with the widest rating spread.
func (s *StatsService) HighVariability(ctx context.Context, limit int) ([]models.VariabilityCategory, error) {
	return s.variability(ctx, limit, "DESC")
}

// LowVariability returns the categories with the narrowest rating spread.
func (s *StatsService) LowVariability(ctx context.Context, limit int) ([]models.VariabilityCategory, error) {
	return s.variability(ctx, limit, "ASC")
}

func (s *StatsService) variability(ctx context.Context, limit int, direction string) ([]models.VariabilityCategory, error) {
	if limit < MinLimit || limit > MaxLimit {
		return nil, apperr.Invalid("limit must be between %d and %d, got %d", MinLimit, MaxLimit, limit)
	}

	// Ordering by variance is equivalent to ordering by standard
	// deviation: sqrt is monotone on non-negative values.
	query := `
		SELECT
			category_name,
			AVG(stars * stars) - AVG(stars) * AVG(stars) AS variance,
			AVG(stars) AS average_rating,
			COUNT(*) AS product_count
		FROM amazon_products
		WHERE stars IS NOT NULL AND category_name IS NOT NULL
		GROUP BY category_name
		HAVING COUNT(*) >= ?
		ORDER BY variance ` + direction + `
		LIMIT ?`

	var rows []models.VariabilityCategory
	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		if err := conn.WithContext(ctx).Raw(query, s.MinCategorySize, limit).Scan(&rows).Error; err != nil {
			return apperr.Query("variability", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].Variance = clampVariance(rows[i].Variance)
		rows[i].StandardDeviation = math.Sqrt(rows[i].Variance)
	}
	if rows == nil {
		rows = []models.VariabilityCategory{}
	}
	return rows, nil
}

// GlobalStats covers all qualifying rows in one pass.
func (s *StatsService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_products,
			COUNT(DISTINCT category_name) AS total_categories,
			COALESCE(AVG(stars), 0) AS global_avg_rating,
			COALESCE(AVG(stars * stars) - AVG(stars) * AVG(stars), 0) AS variance,
			COALESCE(MIN(stars), 0) AS min_rating,
			COALESCE(MAX(stars), 0) AS max_rating
		FROM amazon_products
		WHERE stars IS NOT NULL AND category_name IS NOT NULL`

	var row struct {
		TotalProducts   int64
		TotalCategories int64
		GlobalAvgRating float64
		Variance        float64
		MinRating       float64
		MaxRating       float64
	}
	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		if err := conn.WithContext(ctx).Raw(query).Scan(&row).Error; err != nil {
			return apperr.Query("global_stats", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.GlobalStats{
		TotalProducts:   row.TotalProducts,
		TotalCategories: row.TotalCategories,
		GlobalAvgRating: row.GlobalAvgRating,
		GlobalStddev:    math.Sqrt(clampVariance(row.Variance)),
		MinRating:       row.MinRating,
		MaxRating:       row.MaxRating,
	}, nil
}

// CategoryDistribution lists every named category regardless of size,
// largest first. Rows with NULL stars still count toward the size;
// their ratings simply don't contribute to the aggregates.
func (s *StatsService) CategoryDistribution(ctx context.Context) ([]models.CategoryBucket, error) {
	query := `
		SELECT
			category_name,
			COUNT(*) AS product_count,
			AVG(stars) AS avg_rating,
			MIN(stars) AS min_rating,
			MAX(stars) AS max_rating
		FROM amazon_products
		WHERE category_name IS NOT NULL
		GROUP BY category_name
		ORDER BY product_count DESC`

	var rows []models.CategoryBucket
	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		if err := conn.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
			return apperr.Query("category_distribution", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.CategoryBucket{}
	}
	return rows, nil
}

// DataQuality summarizes load-time data quality; logged at startup and
// exposed read-only.
func (s *StatsService) DataQuality(ctx context.Context) (*models.DataQualityReport, error) {
	var report models.DataQualityReport

	err := s.Catalog.View(ctx, func(conn *gorm.DB) error {
		counts := `
			SELECT
				COUNT(*) AS total_rows,
				COALESCE(SUM(CASE WHEN stars IS NULL THEN 1 ELSE 0 END), 0) AS null_stars,
				COALESCE(SUM(CASE WHEN category_name IS NULL THEN 1 ELSE 0 END), 0) AS null_categories,
				COALESCE(SUM(CASE WHEN stars IS NOT NULL AND category_name IS NOT NULL THEN 1 ELSE 0 END), 0) AS valid_rows
			FROM amazon_products`
		if err := conn.WithContext(ctx).Raw(counts).Scan(&report).Error; err != nil {
			return apperr.Query("data_quality", err)
		}

		ratings := `
			SELECT
				MIN(stars) AS min_rating,
				MAX(stars) AS max_rating,
				AVG(stars) AS avg_rating
			FROM amazon_products
			WHERE stars IS NOT NULL`
		var ratingRow struct {
			MinRating *float64
			MaxRating *float64
			AvgRating *float64
		}
		if err := conn.WithContext(ctx).Raw(ratings).Scan(&ratingRow).Error; err != nil {
			return apperr.Query("data_quality", err)
		}
		report.MinRating = ratingRow.MinRating
		report.MaxRating = ratingRow.MaxRating
		report.AvgRating = ratingRow.AvgRating

		distinct := `
			SELECT COUNT(DISTINCT category_name)
			FROM amazon_products
			WHERE category_name IS NOT NULL`
		if err := conn.WithContext(ctx).Raw(distinct).Scan(&report.UniqueCategories).Error; err != nil {
			return apperr.Query("data_quality", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// populationStats returns the mean and population standard deviation
// (divisor N) of xs. xs must be non-empty.
func populationStats(xs []float64) (mean, stddev float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

// clampVariance squashes the tiny negative values the AVG(x*x)-AVG(x)^2
// form can produce through floating-point rounding.
func clampVariance(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
