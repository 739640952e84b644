/**
 * @description
 * Derived analytics records returned by the query layer.
 * Computed fresh per request, never persisted.
 */

package models

// CategoryStats summarizes rating statistics for one qualifying category.
// StandardDeviation and Variance are population statistics (divisor N).
type CategoryStats struct {
	CategoryName      string  `json:"category_name"`
	AverageRating     float64 `json:"average_rating"`
	StandardDeviation float64 `json:"standard_deviation"`
	Variance          float64 `json:"variance"`
	ProductCount      int64   `json:"product_count"`
}

// ZScoreOutlier marks a category whose mean rating deviates from the
// mean of all qualifying category means by at least the caller's
// threshold, in units of the cross-category standard deviation.
type ZScoreOutlier struct {
	CategoryName  string  `json:"category_name"`
	AverageRating float64 `json:"average_rating"`
	ZScore        float64 `json:"z_score"`
	GlobalAverage float64 `json:"global_average"`
	ProductCount  int64   `json:"product_count"`
	IsHighOutlier bool    `json:"is_high_outlier"`
	IsLowOutlier  bool    `json:"is_low_outlier"`
}

// VariabilityCategory is a category ranked by rating spread.
type VariabilityCategory struct {
	CategoryName      string  `json:"category_name"`
	StandardDeviation float64 `json:"standard_deviation"`
	Variance          float64 `json:"variance"`
	AverageRating     float64 `json:"average_rating"`
	ProductCount      int64   `json:"product_count"`
}

// GlobalStats covers every qualifying row in the catalog.
type GlobalStats struct {
	TotalProducts   int64   `json:"total_products"`
	TotalCategories int64   `json:"total_categories"`
	GlobalAvgRating float64 `json:"global_avg_rating"`
	GlobalStddev    float64 `json:"global_stddev"`
	MinRating       float64 `json:"min_rating"`
	MaxRating       float64 `json:"max_rating"`
}

// CategoryBucket is one row of the category distribution view. Unlike
// the other per-category views it includes categories of any size, and
// rating fields are nullable because unrated categories still appear.
type CategoryBucket struct {
	CategoryName string   `json:"category_name"`
	ProductCount int64    `json:"product_count"`
	AvgRating    *float64 `json:"avg_rating"`
	MinRating    *float64 `json:"min_rating"`
	MaxRating    *float64 `json:"max_rating"`
}

// DataQualityReport summarizes load-time data quality.
type DataQualityReport struct {
	TotalRows        int64    `json:"total_rows"`
	ValidRows        int64    `json:"valid_rows"`
	NullStars        int64    `json:"null_stars"`
	NullCategories   int64    `json:"null_categories"`
	MinRating        *float64 `json:"min_rating"`
	MaxRating        *float64 `json:"max_rating"`
	AvgRating        *float64 `json:"avg_rating"`
	UniqueCategories int64    `json:"unique_categories"`
}

// CacheInfo reports the state of the on-disk cache artifacts and the
// effective storage mode.
type CacheInfo struct {
	CSVExists       bool    `json:"csv_exists"`
	DBExists        bool    `json:"db_exists"`
	CSVSizeMB       float64 `json:"csv_size_mb"`
	DBSizeMB        float64 `json:"db_size_mb"`
	RecordCount     int64   `json:"record_count"`
	RestrictedEnv   bool    `json:"restricted_env"`
	UsePersistentDB bool    `json:"use_persistent_db"`
}
