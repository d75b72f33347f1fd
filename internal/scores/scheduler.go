package scores

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRetryScheduler retries failed uploads every interval until ctx is
// done. The returned scheduler is already running; ctx cancellation shuts it
// down.
func StartRetryScheduler(ctx context.Context, c *Coordinator, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("retry interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			res := c.RetryFailedUploads(ctx)
			if res.RetriedCount > 0 || res.FailedCount > 0 {
				log.Printf("[Scores] scheduled retry: %s\n", res.Message)
			}
		}),
		gocron.WithName("retry-failed-uploads"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("scheduling retry job: %w", err)
	}

	s.Start()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			log.Printf("[Scores] stopping retry scheduler: %v\n", err)
		}
	}()
	return s, nil
}
