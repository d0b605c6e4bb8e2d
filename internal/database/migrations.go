package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes that AutoMigrate does not
// cover. Postgres only; the catalog query has no MySQL equivalent here.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Guard-chain lookups resolve environments by publishable key on
		// every request.
		{"project_environments", "idx_project_environments_project_id", "project_id"},

		// Project-scoped user resolution joins links against users by email.
		{"project_user_links", "idx_project_user_links_user_id", "user_id"},
		{"users", "idx_users_email", "email"},

		// Magic link verification filters by project and environment.
		{"magic_links", "idx_magic_links_project_id", "project_id"},
		{"magic_links", "idx_magic_links_environment_id", "environment_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
