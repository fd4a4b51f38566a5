package store

import (
	"context"
	"fmt"
	"time"
)

// Allow counts one event for (category, user) in a fixed window and reports
// whether it stays within limit. The counter and its expiry are set in one
// script so a crash between the two can't leave an immortal counter.
func (s *Store) Allow(ctx context.Context, category, user string, limit int, window time.Duration) (bool, error) {
	ok, err := fixedWindowScript.Run(ctx, s.rdb,
		[]string{rateLimitKey(category, user)},
		limit, ttlSeconds(window),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", category, err)
	}
	return ok == 1, nil
}
