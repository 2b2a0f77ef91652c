// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSeasonScheduler runs the periodic rank refresh and the season-close
// payout sweep. Both jobs are re-runnable: refresh overwrites the snapshot,
// and the distributor only ever touches unclaimed rows.
func StartSeasonScheduler(tracker *SeasonProgressTracker, distributor *LeaderboardRewardDistributor) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 5 minutes: refresh stored leaderboard ranks while the season runs
	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			season, err := tracker.Content.ResolveActiveSeason()
			if err != nil {
				return // no active season, nothing to rank
			}
			if _, err := tracker.RefreshStoredRanks(season.ID); err != nil {
				log.Printf("[Scheduler] Rank refresh failed: %v", err)
			}
		}),
	)

	// Every 15 minutes: season-close payout sweep. No-ops until the season
	// window ends, distributes once, then keeps reporting zero.
	_, _ = sched.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(func() {
			res, err := distributor.Distribute(false)
			if err != nil {
				log.Printf("[Scheduler] Leaderboard distribution failed: %v", err)
				return
			}
			if res.Skipped == "" && res.Distributed > 0 {
				log.Printf("✅ Auto-distributed %d leaderboard reward(s)", res.Distributed)
			}
		}),
	)
}
