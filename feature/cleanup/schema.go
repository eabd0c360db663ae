package cleanup

import (
	"fmt"

	"photo-curator/core/database"

	"gorm.io/gorm"
)

// requiredColumns lists, per table, the columns the cleanup job reads or
// writes. The check is presence-only; types vary across drivers.
var requiredColumns = map[string][]string{
	"images":         {"id", "user_id", "file_key", "model"},
	"faces":          {"id", "image_id", "person_id"},
	"people":         {"id", "user_id", "is_valid"},
	"cleanup_states": {"user_id", "checkpoint", "needs_scan", "full_resync"},
}

// VerifySchema checks that every table the cleanup job touches exists and
// carries the expected columns. Returns a list of problems; an empty list
// means the schema is usable.
func VerifySchema(db *gorm.DB) ([]string, error) {
	var problems []string

	for table, required := range requiredColumns {
		columns, err := database.GetTableColumns(db, table)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
		}
		if len(columns) == 0 {
			problems = append(problems, fmt.Sprintf("table %s: missing", table))
			continue
		}

		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col.Field] = struct{}{}
		}
		for _, name := range required {
			if _, ok := present[name]; !ok {
				problems = append(problems, fmt.Sprintf("table %s: missing column %s", table, name))
			}
		}
	}

	return problems, nil
}
