package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

// SettingsRepository implements repositories.SettingsRepository against PostgreSQL.
type SettingsRepository struct {
	q *db.Queries
}

func (r *SettingsRepository) Load(ctx context.Context) (map[string]string, error) {
	rows, err := r.q.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Save upserts every key. Keys absent from settings are left as they are.
func (r *SettingsRepository) Save(ctx context.Context, settings map[string]string) error {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := r.q.UpsertSetting(ctx, db.UpsertSettingParams{Key: k, Value: settings[k]}); err != nil {
			return fmt.Errorf("save setting %s: %w", k, err)
		}
	}
	return nil
}
