package store

import "context"

// SettingSeedCompleted records that first-run seeding has finished.
const SettingSeedCompleted = "seed_completed"

// Setting returns a stored setting value and whether it exists.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	return getSetting(ensureContext(ctx), s.db, key)
}

// PutSetting stores a setting value.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.PutSetting(ctx, key, value)
	})
}
