package reload

import (
	"context"
	"time"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/logger"
)

// reconcile settles the jobs that were running when the previous generation
// was discarded. Jobs whose action caused the reset are completed, other
// running jobs are re-admitted unchanged and missing or terminal jobs leave
// the active list.
func reconcile(ctx context.Context, store durable.Store, keys durable.Keys, registry *Registry, now time.Time) {
	ids, err := loadActive(ctx, store, keys)
	if err != nil {
		logger.Errorf("reload: reconciliation skipped: %v", err)
		return
	}

	var readmitted []*Job
	for _, id := range ids {
		j, err := loadJob(ctx, store, keys, id)
		if err != nil {
			logger.Warnf("reload: dropping job %s from active list: %v", id, err)
			continue
		}
		if j == nil || j.Status.Terminal() {
			continue
		}
		if j.Action.CausesReset() {
			j.logInfo("Domain reload detected, reconciling job")
			if err := j.finish(StatusCompleted, "Domain reload completed", now); err != nil {
				logger.Errorf("reload: %v", err)
				continue
			}
			if err := saveJob(ctx, store, keys, j); err != nil {
				logger.Errorf("reload: failed to snapshot job %s: %v", j.ID, err)
			}
			logger.Infof("reload: job %s completed by domain reload", j.ID)
			continue
		}
		readmitted = append(readmitted, j)
	}

	registry.restore(ctx, readmitted)
	logger.Infof("reload: reconciled %d active job(s), %d re-admitted", len(ids), len(readmitted))
}
