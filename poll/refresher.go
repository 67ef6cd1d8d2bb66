package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshInterval is how often the background refresher renews the token
// pair for the lifetime of the app process.
const RefreshInterval = 45 * time.Minute

// Refresher exchanges the stored refresh token for a new pair. The session
// store implements it.
type Refresher interface {
	RefreshToken(ctx context.Context) error
}

// StartTokenRefresher renews the token pair every RefreshInterval until the
// context is cancelled or Stop is called. Failures are logged and swallowed;
// the timer never stops on error, so a transient outage does not kill the
// refresh cycle.
func StartTokenRefresher(ctx context.Context, r Refresher, log zerolog.Logger) *Poller {
	return StartTokenRefresherEvery(ctx, r, RefreshInterval, log)
}

// StartTokenRefresherEvery is StartTokenRefresher with a caller-set
// interval, for tests.
func StartTokenRefresherEvery(ctx context.Context, r Refresher, interval time.Duration, log zerolog.Logger) *Poller {
	return Start(ctx, interval, false, func(ctx context.Context) bool {
		if err := r.RefreshToken(ctx); err != nil {
			log.Warn().Err(err).Msg("background token refresh failed")
		}
		return true
	})
}
