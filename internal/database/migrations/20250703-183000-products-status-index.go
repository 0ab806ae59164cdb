package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250703-183000",
		Description: "Index products by status and source URL dedupe lookups",
		Up: []string{
			`CREATE INDEX IF NOT EXISTS idx_products_status ON products(user_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_products_source_url ON products(user_id, source_url)`,
		},
	})
}
