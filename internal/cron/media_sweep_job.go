package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/nmarin/marketloop-backend/pkg/db/models"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

const (
	defaultSweepGrace = 15 * time.Minute
	defaultSweepBatch = 100
)

type pendingDeletionRepo interface {
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.PendingMediaDeletion, error)
	Clear(ctx context.Context, objectKey string) error
	RecordFailure(ctx context.Context, objectKey string, cause string) error
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// MediaSweepJobParams configure the pending media deletion sweep.
type MediaSweepJobParams struct {
	Logger    *logger.Logger
	Repo      pendingDeletionRepo
	Storage   objectDeleter
	Grace     time.Duration
	BatchSize int
}

// NewMediaSweepJob builds the job that retries external deletes whose
// markers outlived the grace period.
func NewMediaSweepJob(params MediaSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("pending deletion repository required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("storage client required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultSweepGrace
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &mediaSweepJob{
		logg:    params.Logger,
		repo:    params.Repo,
		storage: params.Storage,
		grace:   grace,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type mediaSweepJob struct {
	logg    *logger.Logger
	repo    pendingDeletionRepo
	storage objectDeleter
	grace   time.Duration
	batch   int
	now     func() time.Time
}

func (j *mediaSweepJob) Name() string { return "media-deletion-sweep" }

// Run retries every overdue marker. Individual failures are aggregated so
// one stuck object cannot stop the rest of the batch.
func (j *mediaSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	markers, err := j.repo.ListOlderThan(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("listing pending deletions: %w", err)
	}

	var swept, failed int
	var errs error
	for _, marker := range markers {
		if err := j.storage.DeleteObject(ctx, marker.ObjectKey); err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", marker.ObjectKey, err))
			if recErr := j.repo.RecordFailure(ctx, marker.ObjectKey, err.Error()); recErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("record failure %s: %w", marker.ObjectKey, recErr))
			}
			continue
		}
		if err := j.repo.Clear(ctx, marker.ObjectKey); err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("clear marker %s: %w", marker.ObjectKey, err))
			continue
		}
		swept++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(markers),
		"swept":      swept,
		"failed":     failed,
	})
	j.logg.Info(logCtx, "media deletion sweep complete")
	return errs
}
