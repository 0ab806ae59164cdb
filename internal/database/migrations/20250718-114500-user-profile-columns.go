package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250718-114500",
		Description: "Add role and billing status to users",
		Up: []string{
			`ALTER TABLE users ADD COLUMN role TEXT NOT NULL DEFAULT 'user'`,
			`ALTER TABLE users ADD COLUMN billing_status TEXT NOT NULL DEFAULT 'inactive'`,
		},
	})
}
