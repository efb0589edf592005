// Package cache memoizes bcrypt verifications: it maps a stored bcrypt hash
// to the md5 digest that was last verified against it, so repeated logins
// skip the expensive comparison.
package cache

import (
	"context"
	"fmt"
)

// CredentialCache maps bcrypt hash -> md5 hex digest. Entries are never evicted.
type CredentialCache interface {
	// Get returns the digest cached for hash
	Get(ctx context.Context, hash string) (digest string, ok bool)
	// Set stores digest for hash, replacing any earlier value
	Set(ctx context.Context, hash, digest string)
}

// StatsReporter is implemented by caches that count their lookups
type StatsReporter interface {
	Stats() Stats
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// HitRate returns hits as a percentage of all lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

func (s Stats) String() string {
	return fmt.Sprintf("%d entries, %d hits, %d misses (%.1f%% hit rate)", s.Entries, s.Hits, s.Misses, s.HitRate())
}
