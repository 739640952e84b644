/**
 * @description
 * Product catalog database model.
 * Maps to the 'amazon_products' table in SQLite.
 *
 * @dependencies
 * - gorm.io/gorm (tags only)
 *
 * @notes
 * - Nullable source columns are pointers so a blank or unparseable CSV
 *   field loads as NULL rather than a zero value. Aggregate queries rely
 *   on that distinction (rows with NULL stars or category are excluded).
 */

package models

// Product represents one catalog row loaded from the source CSV.
// The table is write-once: it is rebuilt wholesale on load or
// clear-cache and never updated in place.
type Product struct {
	ASIN              string   `gorm:"column:asin;index" json:"asin"`
	Title             string   `gorm:"column:title" json:"title"`
	ImgURL            string   `gorm:"column:img_url" json:"img_url"`
	ProductURL        string   `gorm:"column:product_url" json:"product_url"`
	Stars             *float64 `gorm:"column:stars" json:"stars"`
	Reviews           *int64   `gorm:"column:reviews" json:"reviews"`
	Price             *float64 `gorm:"column:price" json:"price"`
	IsBestSeller      bool     `gorm:"column:is_best_seller" json:"is_best_seller"`
	BoughtInLastMonth *int64   `gorm:"column:bought_in_last_month" json:"bought_in_last_month"`
	CategoryName      *string  `gorm:"column:category_name;index" json:"category_name"`
}

// TableName overrides the table name used by Product to `amazon_products`
func (Product) TableName() string {
	return "amazon_products"
}
