package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250614-101500",
		Description: "Index reviews by selection for publish queries",
		Up: []string{
			`CREATE INDEX IF NOT EXISTS idx_reviews_selected ON reviews(product_id, selected)`,
		},
	})
}
