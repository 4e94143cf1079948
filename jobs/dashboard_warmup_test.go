package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/caixaclaro/caixaclaro/internal/jobs"
)

func newWarmupJob(t *testing.T) (*DashboardWarmupJob, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	j := NewDashboardWarmupJob(nil, nil, slog.New(slog.DiscardHandler), metrics)
	return j, reg
}

func jobRunCount(t *testing.T, reg *prometheus.Registry, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "caixaclaro_jobs_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			matched := false
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					matched = true
				}
			}
			if matched {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestDashboardWarmupSkipsRetryOnBadInput(t *testing.T) {
	j, reg := newWarmupJob(t)

	err := j.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = j.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte(`{"ref":"03/2026"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	// Rejected payloads never start a tracked run.
	require.Zero(t, jobRunCount(t, reg, "failure"))
	require.Zero(t, jobRunCount(t, reg, "success"))
}

func TestDashboardWarmupRecordsFailedRun(t *testing.T) {
	j, reg := newWarmupJob(t)

	err := j.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte(`{}`)))
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)

	require.Equal(t, float64(1), jobRunCount(t, reg, "failure"))
	require.Zero(t, jobRunCount(t, reg, "success"))
}
