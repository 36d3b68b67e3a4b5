package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Keys of the persisted values.
const (
	KeyInventoryGroups = "inventoryGroups"
	KeyShippedGroups   = "shippedGroups"
	KeyDefaultRemark   = "globalDefaultRemark"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetJSON decodes the value stored under key into dst. It reports false,
// leaving dst untouched, when the key is absent.
func GetJSON(ctx context.Context, db *sql.DB, key string, dst any) (bool, error) {
	var raw string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// SetJSON replaces the value stored under key.
func SetJSON(ctx context.Context, db *sql.DB, key string, value any) error {
	return setJSON(ctx, db, key, value)
}

func setJSON(ctx context.Context, ex execer, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// DeleteKey removes key. Subsequent reads yield the key's default.
func DeleteKey(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
