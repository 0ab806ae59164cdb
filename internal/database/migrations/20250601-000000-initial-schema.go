package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250601-000000",
		Description: "Initial schema",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				name TEXT,
				created_at TEXT NOT NULL
			)`,

			// Connected Shopify stores. Access tokens are AES-GCM
			// encrypted before they hit the database.
			`CREATE TABLE IF NOT EXISTS stores (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				shop_domain TEXT UNIQUE NOT NULL,
				access_token_encrypted TEXT NOT NULL,
				plan TEXT NOT NULL DEFAULT 'starter',
				active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_stores_user_id ON stores(user_id)`,

			// Imported products. JSON columns hold arrays produced by
			// the extraction pipeline.
			`CREATE TABLE IF NOT EXISTS products (
				id TEXT PRIMARY KEY,
				store_id TEXT,
				user_id TEXT NOT NULL,
				source_url TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				description_html TEXT,
				price TEXT,
				original_price TEXT,
				discount_percentage INTEGER DEFAULT 0,
				currency TEXT,
				variants_json TEXT,
				main_images_json TEXT,
				description_images_json TEXT,
				status TEXT NOT NULL DEFAULT 'draft',
				shopify_product_id TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_products_user_id ON products(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_products_store_id ON products(store_id)`,

			`CREATE TABLE IF NOT EXISTS reviews (
				id TEXT PRIMARY KEY,
				product_id TEXT NOT NULL,
				author TEXT NOT NULL DEFAULT '',
				rating INTEGER NOT NULL DEFAULT 5,
				content TEXT NOT NULL DEFAULT '',
				image_url TEXT,
				country TEXT,
				source TEXT NOT NULL DEFAULT 'imported',
				selected INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reviews_product_id ON reviews(product_id)`,

			// Denormalized snapshot served to the public widget. One row
			// per product, replaced wholesale on publish.
			`CREATE TABLE IF NOT EXISTS published_reviews (
				product_id TEXT PRIMARY KEY,
				reviews_json TEXT NOT NULL,
				review_count INTEGER NOT NULL DEFAULT 0,
				average_rating REAL NOT NULL DEFAULT 0,
				published_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS review_configs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				product_id TEXT NOT NULL,
				widget_title TEXT NOT NULL DEFAULT 'Customer Reviews',
				show_ratings_summary INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, product_id)
			)`,

			`CREATE TABLE IF NOT EXISTS subscriptions (
				id TEXT PRIMARY KEY,
				user_id TEXT UNIQUE NOT NULL,
				stripe_customer_id TEXT NOT NULL,
				stripe_subscription_id TEXT,
				plan TEXT NOT NULL DEFAULT 'starter',
				status TEXT NOT NULL DEFAULT 'active',
				current_period_start TEXT,
				current_period_end TEXT,
				cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_subscriptions_stripe_customer ON subscriptions(stripe_customer_id)`,

			`CREATE TABLE IF NOT EXISTS import_jobs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				store_id TEXT,
				url TEXT NOT NULL,
				strategy TEXT,
				mode TEXT,
				status TEXT NOT NULL DEFAULT 'queued',
				error TEXT,
				product_id TEXT,
				attempts INTEGER NOT NULL DEFAULT 0,
				started_at TEXT,
				completed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_import_jobs_user_id ON import_jobs(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_import_jobs_status ON import_jobs(status, created_at)`,
		},
	})
}
