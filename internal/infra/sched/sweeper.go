package sched

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"faceswapd/internal/domain/ports/repository"
	"faceswapd/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const dayLayout = "2006-01-02"

// Sweeper periodically reaps date partitions older than the retention
// horizon, together with the job records created on those days. Partitions
// strictly older than the horizon are the only ones touched, so clients get
// the full horizon window to fetch a result before it disappears.
type Sweeper struct {
	uploads    repository.ArtifactStore
	outputs    repository.ArtifactStore
	jobs       repository.JobRepository
	outputRoot string
	horizon    int // days
	interval   time.Duration
	log        *zerolog.Logger
	now        func() time.Time
}

func NewSweeper(
	uploads repository.ArtifactStore,
	outputs repository.ArtifactStore,
	jobs repository.JobRepository,
	outputRoot string,
	horizonDays int,
	interval time.Duration,
	logger *zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		uploads:    uploads,
		outputs:    outputs,
		jobs:       jobs,
		outputRoot: outputRoot,
		horizon:    horizonDays,
		interval:   interval,
		log:        logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (w *Sweeper) WithClock(now func() time.Time) *Sweeper {
	w.now = now
	return w
}

func (w *Sweeper) Run(ctx context.Context) error {
	w.log.Info().Int("horizon_days", w.horizon).Dur("interval", w.interval).Msg("starting retention sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping retention sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce(ctx, w.now())
		}
	}
}

// SweepOnce runs a single pass relative to the given time. Per-item failures
// are logged and skipped; one broken deletion never aborts the rest of the
// sweep.
func (w *Sweeper) SweepOnce(ctx context.Context, now time.Time) {
	w.sweepStore(ctx, w.uploads, now, true)
	w.sweepStore(ctx, w.outputs, now, false)
	w.sweepStrayFiles(now)
}

// sweepStore removes expired partitions of one store. Job records are reaped
// alongside the upload store only: a job's created_at day is the day its
// inputs were ingested.
func (w *Sweeper) sweepStore(ctx context.Context, store repository.ArtifactStore, now time.Time, reapJobs bool) {
	days, err := store.Partitions()
	if err != nil {
		w.log.Error().Err(err).Msg("list partitions failed")
		metrics.IncSweepError()
		return
	}
	for _, day := range days {
		if !w.expired(day, now) {
			continue
		}
		if reapJobs {
			w.reapJobs(ctx, day)
		}
		if err := store.RemovePartition(day); err != nil {
			w.log.Error().Err(err).Str("partition", day).Msg("remove partition failed")
			metrics.IncSweepError()
			continue
		}
		metrics.IncSwept("partition", 1)
		w.log.Info().Str("partition", day).Msg("removed expired partition")
	}
}

func (w *Sweeper) reapJobs(ctx context.Context, day string) {
	ids, err := w.jobs.IDsCreatedOn(ctx, day)
	if err != nil {
		w.log.Error().Err(err).Str("day", day).Msg("list jobs for day failed")
		metrics.IncSweepError()
		return
	}
	for _, id := range ids {
		if err := w.jobs.Delete(ctx, id); err != nil {
			w.log.Error().Err(err).Str("job_id", id).Msg("delete job record failed")
			metrics.IncSweepError()
			continue
		}
		metrics.IncSwept("job", 1)
		w.log.Info().Str("job_id", id).Str("day", day).Msg("removed expired job record")
	}
}

// sweepStrayFiles removes loose files sitting directly in the output root,
// outside any date partition, once older than the horizon.
func (w *Sweeper) sweepStrayFiles(now time.Time) {
	entries, err := os.ReadDir(w.outputRoot)
	if err != nil {
		w.log.Error().Err(err).Msg("list output root failed")
		metrics.IncSweepError()
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= time.Duration(w.horizon)*24*time.Hour {
			continue
		}
		p := filepath.Join(w.outputRoot, e.Name())
		if err := os.Remove(p); err != nil {
			w.log.Error().Err(err).Str("path", p).Msg("remove stray file failed")
			metrics.IncSweepError()
			continue
		}
		metrics.IncSwept("file", 1)
		w.log.Info().Str("path", p).Msg("removed stray output file")
	}
}

// expired reports whether a partition name is a date strictly older than the
// horizon. Partitions that do not parse as dates are left alone.
func (w *Sweeper) expired(day string, now time.Time) bool {
	d, err := time.ParseInLocation(dayLayout, day, time.UTC)
	if err != nil {
		w.log.Warn().Str("partition", day).Msg("unexpected partition name, skipping")
		return false
	}
	return now.UTC().Sub(d) > time.Duration(w.horizon)*24*time.Hour
}
