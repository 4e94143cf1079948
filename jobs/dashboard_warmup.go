package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/caixaclaro/caixaclaro/internal/dashboard"
	jobmetrics "github.com/caixaclaro/caixaclaro/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// warmupParallelism bounds concurrent report computations per run.
const warmupParallelism = 4

// DashboardWarmupJob pre-populates dashboard report caches for every active
// account so the first morning request is served from Redis.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(svc *dashboard.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: svc,
		Pool:      pool,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks. The named return lets the
// deferred tracker record and wrap the outcome.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	ref := j.now()
	if payload.Ref != "" {
		parsed, err := time.Parse(time.DateOnly, payload.Ref)
		if err != nil {
			return asynq.SkipRetry
		}
		ref = parsed
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("ref", ref.Format(time.DateOnly)))
	logger.Info("starting dashboard warmup")

	owners, err := j.fetchActiveOwners(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load active owners", slog.Any("error", err))
		return resultErr
	}
	if len(owners) == 0 {
		logger.Info("no active owners to warm")
		return resultErr
	}

	start := j.now()
	g, warmCtx := errgroup.WithContext(ctx)
	g.SetLimit(warmupParallelism)
	for _, ownerID := range owners {
		g.Go(func() error {
			scopeCtx, cancel := context.WithTimeout(warmCtx, 20*time.Second)
			defer cancel()
			return j.Dashboard.Warm(scopeCtx, ownerID, ref)
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		logger.Error("warm dashboards", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed dashboard warmup",
		slog.Int("owners", len(owners)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DashboardWarmupJob) fetchActiveOwners(ctx context.Context) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("dashboard warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT id FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
