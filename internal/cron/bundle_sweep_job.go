package cron

import (
	"context"
	"errors"

	"github.com/voltbridge/markethub/internal/bundling"
	"github.com/voltbridge/markethub/pkg/logger"
	"github.com/voltbridge/markethub/pkg/metrics"
)

// BundleSweepJob closes open bundles whose bundling window has elapsed,
// making them visible to peek.
type BundleSweepJob struct {
	bundler *bundling.Service
	logg    *logger.Logger
	metrics *metrics.JobMetrics
}

// NewBundleSweepJob builds the sweep job.
func NewBundleSweepJob(bundler *bundling.Service, logg *logger.Logger, jobMetrics *metrics.JobMetrics) (*BundleSweepJob, error) {
	if bundler == nil {
		return nil, errors.New("bundler is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &BundleSweepJob{bundler: bundler, logg: logg, metrics: jobMetrics}, nil
}

// Name implements Job.
func (j *BundleSweepJob) Name() string {
	return "bundle_sweep"
}

// Run implements Job.
func (j *BundleSweepJob) Run(ctx context.Context) error {
	closed, err := j.bundler.Sweep(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "bundles_closed", closed), "bundles closed for retrieval")
		j.metrics.IncBundlesClosed(closed)
	}
	return nil
}
