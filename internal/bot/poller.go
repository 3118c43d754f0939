package bot

import (
	"context"
	"time"
)

const pollRetryDelay = 3 * time.Second

// Run long-polls for updates until ctx is cancelled, dispatching each update
// on its own goroutine so one chat's slow gateway call never stalls others.
func (r *Router) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := r.gw.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn().Err(err).Msg("failed to poll updates")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go r.HandleUpdate(ctx, upd)
		}
	}
}
