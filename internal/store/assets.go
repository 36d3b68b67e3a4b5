package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/nexus/internal/model"
)

// PutAsset stores or replaces a cached asset.
func PutAsset(ctx context.Context, db *sql.DB, a *model.CachedAsset) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO asset_cache (version, url, status, content_type, etag, body, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (version, url) DO UPDATE SET
		     status = excluded.status,
		     content_type = excluded.content_type,
		     etag = excluded.etag,
		     body = excluded.body,
		     fetched_at = excluded.fetched_at`,
		a.Version, a.URL, a.Status, a.ContentType, a.ETag, a.Body, a.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("caching asset %s: %w", a.URL, err)
	}
	return nil
}

// GetAsset returns the cached asset for url in version, or nil.
func GetAsset(ctx context.Context, db *sql.DB, version, url string) (*model.CachedAsset, error) {
	a := &model.CachedAsset{}
	err := db.QueryRowContext(ctx,
		`SELECT version, url, status, content_type, etag, body, fetched_at
		 FROM asset_cache WHERE version = ? AND url = ?`, version, url,
	).Scan(&a.Version, &a.URL, &a.Status, &a.ContentType, &a.ETag, &a.Body, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached asset %s: %w", url, err)
	}
	return a, nil
}

// ListAssetURLs returns the urls cached under version.
func ListAssetURLs(ctx context.Context, db *sql.DB, version string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT url FROM asset_cache WHERE version = ? ORDER BY url`, version,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cached assets: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning cached asset: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// PurgeAssetsExcept deletes every cached asset not in version and returns
// how many were removed.
func PurgeAssetsExcept(ctx context.Context, db *sql.DB, version string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM asset_cache WHERE version <> ?`, version,
	)
	if err != nil {
		return 0, fmt.Errorf("purging old cached assets: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
