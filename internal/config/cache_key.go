package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AggregateKey returns the cache key for one cached dashboard response. The
// generation is the dataset load counter, so every reload orphans the keys of
// the previous table; the digest hashes the request (path, query, body).
func (r *CacheKeyStruct) AggregateKey(generation uint64, digest string) string {
	return fmt.Sprintf("aggregate:gen:%d:%s", generation, digest)
}

// DatasetLockKey returns the key used to serialize dataset reloads across
// replicas.
func (r *CacheKeyStruct) DatasetLockKey() string {
	return "dataset:reload_lock"
}

var CacheKey = NewCacheKeyStruct()
