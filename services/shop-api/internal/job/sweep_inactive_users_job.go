package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ecommerce-shop/shared/pkg/models"
)

type InactiveSweeper interface {
	SweepInactive(ctx context.Context) ([]models.User, error)
}

// SweepInactiveUsersJob deletes idle accounts on a cron schedule.
type SweepInactiveUsersJob struct {
	Users   InactiveSweeper
	Log     zerolog.Logger
	Timeout time.Duration
}

func NewSweepInactiveUsersJob(users InactiveSweeper, log zerolog.Logger) *SweepInactiveUsersJob {
	return &SweepInactiveUsersJob{Users: users, Log: log, Timeout: time.Minute}
}

// Run implements cron.Job.
func (j *SweepInactiveUsersJob) Run() {
	ctx := context.Background()
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	gone, err := j.Users.SweepInactive(ctx)
	if err != nil {
		j.Log.Error().Err(err).Msg("inactive user sweep failed")
		return
	}
	if len(gone) > 0 {
		ids := make([]string, 0, len(gone))
		for _, u := range gone {
			ids = append(ids, u.ID)
		}
		j.Log.Info().Strs("user_ids", ids).Msg("inactive users removed")
	}
}

// NewScheduler returns a cron whose jobs survive panics and skip a tick while
// the previous run of the same job is still going.
func NewScheduler(log zerolog.Logger) *cron.Cron {
	l := cronLogger{log: log}
	return cron.New(cron.WithLogger(l), cron.WithChain(wrappers(l)...))
}

func wrappers(l cron.Logger) []cron.JobWrapper {
	return []cron.JobWrapper{cron.Recover(l), cron.SkipIfStillRunning(l)}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
