package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/api"
)

// RedemptionPollInterval is how often a pending redemption's status is
// re-fetched.
const RedemptionPollInterval = 10 * time.Second

// RedemptionStatusClient fetches the current state of one redemption.
// *api.Client implements it.
type RedemptionStatusClient interface {
	RedemptionStatus(ctx context.Context, id string) (*api.Redemption, error)
}

// WatchRedemption polls a redemption while it is pending. The first check
// fires immediately. When the status reaches a terminal state, notify is
// called exactly once with the final redemption and polling stops; no
// further requests are made. Fetch errors are logged and the poll
// continues. Stop the returned Poller when the owning view goes away.
func WatchRedemption(ctx context.Context, c RedemptionStatusClient, id string, notify func(*api.Redemption), log zerolog.Logger) *Poller {
	return WatchRedemptionEvery(ctx, c, id, RedemptionPollInterval, notify, log)
}

// WatchRedemptionEvery is WatchRedemption with a caller-set interval, for
// tests.
func WatchRedemptionEvery(ctx context.Context, c RedemptionStatusClient, id string, interval time.Duration, notify func(*api.Redemption), log zerolog.Logger) *Poller {
	return Start(ctx, interval, true, func(ctx context.Context) bool {
		r, err := c.RedemptionStatus(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			log.Warn().Err(err).Str("redemption", id).Msg("status poll failed")
			return true
		}
		if r.Status.Terminal() {
			notify(r)
			return false
		}
		return true
	})
}
