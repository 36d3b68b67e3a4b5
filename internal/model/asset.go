package model

import "time"

// CachedAsset is a stored copy of a static resource, keyed by cache version
// and request URL.
type CachedAsset struct {
	Version     string
	URL         string
	Status      int
	ContentType string
	ETag        string
	Body        []byte
	FetchedAt   time.Time
}
