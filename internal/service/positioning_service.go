package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/locate"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/repository"
)

// ErrBatchRunning is returned when a batch pass is requested while another
// one is still in progress.
var ErrBatchRunning = fmt.Errorf("%w: a recompute pass is already running", ErrConflict)

// Outcome describes what a single-anchor recompute did.
type Outcome struct {
	AnchorID int64         `json:"anchor_id"`
	Result   string        `json:"result"` // one of the observability outcome labels
	Status   locate.Status `json:"-"`
	Usable   int           `json:"usable_observations"`
	Updated  bool          `json:"updated"`
}

// BatchSummary reports the counters of one batch pass.
type BatchSummary struct {
	RunID   int64 `json:"run_id"`
	Total   int   `json:"total"`
	Updated int   `json:"updated"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
}

// PositioningOptions configures a PositioningService.
type PositioningOptions struct {
	Params  locate.Params
	Rand    locate.Rand // nil uses the process-wide generator
	Metrics *observability.PositioningCollector
	Logger  logging.Logger
}

// PositioningService recomputes anchor positions from stored observations,
// either for one anchor after an upload or for every anchor in a batch.
type PositioningService struct {
	db           *sql.DB
	anchors      *repository.AnchorRepository
	observations *repository.ObservationRepository
	runs         *repository.RunRepository

	params  locate.Params
	rng     locate.Rand
	metrics *observability.PositioningCollector
	logger  logging.Logger

	locks   *keyedMutex
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewPositioningService creates a new positioning service
func NewPositioningService(db *sql.DB, opts PositioningOptions) *PositioningService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Noop()
	}
	var rng locate.Rand
	if opts.Rand != nil {
		rng = &lockedRand{r: opts.Rand}
	}
	return &PositioningService{
		db:           db,
		anchors:      repository.NewAnchorRepository(db),
		observations: repository.NewObservationRepository(db),
		runs:         repository.NewRunRepository(db),
		params:       opts.Params,
		rng:          rng,
		metrics:      opts.Metrics,
		logger:       logger.With(logging.String("component", "positioning")),
		locks:        newKeyedMutex(),
	}
}

type lockedRand struct {
	mu sync.Mutex
	r  locate.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// RecalculateOne recomputes one anchor using q, which may be the upload
// transaction. Mobile or missing anchors and anchors with too few usable
// observations are left unchanged; only persistence failures return an error.
func (s *PositioningService) RecalculateOne(ctx context.Context, q database.DBTX, anchorID int64) (Outcome, error) {
	return s.recalculate(ctx, q, anchorID, observability.ModeIncremental)
}

func (s *PositioningService) recalculate(ctx context.Context, q database.DBTX, anchorID int64, mode string) (Outcome, error) {
	start := time.Now()
	unlock := s.locks.Lock(anchorID)
	defer unlock()

	out, err := s.compute(ctx, q, anchorID)
	if err != nil {
		s.metrics.ObserveRecompute(mode, observability.OutcomeError, time.Since(start))
		return out, err
	}
	s.metrics.ObserveRecompute(mode, out.Result, time.Since(start))
	return out, nil
}

func (s *PositioningService) compute(ctx context.Context, q database.DBTX, anchorID int64) (Outcome, error) {
	out := Outcome{AnchorID: anchorID}
	log := s.logger.With(logging.Int64("anchor_id", anchorID))

	a, err := s.anchors.WithTx(q).GetByID(ctx, anchorID)
	if err != nil {
		return out, err
	}
	if a == nil {
		out.Result = observability.OutcomeNotFound
		log.Debug(ctx, "anchor not found, skipping recompute")
		return out, nil
	}
	if a.IsMobile {
		out.Result = observability.OutcomeSkippedMobile
		log.Debug(ctx, "anchor is mobile, skipping recompute")
		return out, nil
	}
	if a.BuildingID == nil {
		out.Result = observability.OutcomeInsufficient
		log.Debug(ctx, "anchor has no building, skipping recompute")
		return out, nil
	}

	window := s.params.ObservationWindow
	if window <= 0 {
		window = 15
	}
	rows, err := s.observations.WithTx(q).RecentSamples(ctx, anchorID, *a.BuildingID, window)
	if err != nil {
		return out, err
	}

	samples := make([]locate.Sample, len(rows))
	for i, r := range rows {
		samples[i] = locate.Sample{
			Position:     locate.Vec{r.X, r.Y, r.Z},
			RSSI:         float64(r.RSSI),
			ScanAccuracy: r.ScanAccuracy,
		}
	}

	est := s.params.Estimate(samples, priorOf(a), s.rng)
	out.Status, out.Usable = est.Status, est.Usable

	switch est.Status {
	case locate.InsufficientData:
		out.Result = observability.OutcomeInsufficient
		log.Info(ctx, "insufficient observations for anchor",
			logging.Int("observations", len(samples)), logging.Int("usable", est.Usable))
		return out, nil
	case locate.Degenerate:
		out.Result = observability.OutcomeDegenerate
		log.Warn(ctx, "degenerate observer geometry for anchor", logging.Int("usable", est.Usable))
		return out, nil
	}

	var z *float64
	out.Result = observability.OutcomeSolved2D
	if est.Dim == 3 {
		z = &est.Point[2]
		out.Result = observability.OutcomeSolved3D
	}
	accuracy := a.Accuracy
	if est.AccuracyKnown {
		accuracy = est.Accuracy
	}

	updated, err := s.anchors.WithTx(q).UpdatePosition(ctx, anchorID, est.Point[0], est.Point[1], z, accuracy)
	if err != nil {
		return out, err
	}
	out.Updated = updated
	log.Info(ctx, "anchor position updated",
		logging.Int("dim", est.Dim),
		logging.Float("x", est.Point[0]),
		logging.Float("y", est.Point[1]),
		logging.Float("accuracy", accuracy),
		logging.Int("inliers", len(est.Inliers)),
		logging.Int("usable", est.Usable))
	return out, nil
}

func priorOf(a *models.Anchor) locate.Vec {
	prior := locate.Unset()
	for i, c := range []*float64{a.X, a.Y, a.Z} {
		if c != nil {
			prior[i] = *c
		}
	}
	return prior
}

// RecalculateAll runs a scheduled batch pass over every non-mobile anchor,
// optionally only those without coordinates. It blocks until the pass ends.
func (s *PositioningService) RecalculateAll(ctx context.Context, onlyUnpositioned bool) (*BatchSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBatchRunning
	}
	defer s.running.Store(false)
	s.wg.Add(1)
	defer s.wg.Done()

	runID, err := s.runs.Create(context.WithoutCancel(ctx), models.RunSourceScheduler, onlyUnpositioned)
	if err != nil {
		return nil, err
	}
	return s.executeBatch(ctx, runID, onlyUnpositioned)
}

// StartBatch records a new run and executes it in the background. It returns
// the run ID immediately.
func (s *PositioningService) StartBatch(ctx context.Context, source string, onlyUnpositioned bool) (int64, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrBatchRunning
	}

	runID, err := s.runs.Create(ctx, source, onlyUnpositioned)
	if err != nil {
		s.running.Store(false)
		return 0, err
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.executeBatch(bg, runID, onlyUnpositioned); err != nil {
			s.logger.Error(bg, "background recompute failed", logging.Int64("run_id", runID), logging.Err(err))
		}
	}()
	return runID, nil
}

// Running reports whether a batch pass is in progress.
func (s *PositioningService) Running() bool {
	return s.running.Load()
}

// Wait blocks until running batch passes have finished.
func (s *PositioningService) Wait() {
	s.wg.Wait()
}

// Runs lists the most recent batch passes.
func (s *PositioningService) Runs(ctx context.Context, limit int) ([]models.RecomputeRun, error) {
	return s.runs.List(ctx, limit)
}

// executeBatch runs the pass inside one transaction. Per-anchor numerical
// failures are counted and skipped; persistence failures roll back the pass.
// Cancelling ctx stops between anchors and keeps the work done so far.
func (s *PositioningService) executeBatch(ctx context.Context, runID int64, onlyUnpositioned bool) (*BatchSummary, error) {
	start := time.Now()
	summary := &BatchSummary{RunID: runID}
	log := s.logger.With(logging.Int64("run_id", runID))
	// Bookkeeping and the transaction outlive cancellation of ctx.
	store := context.WithoutCancel(ctx)

	ids, err := s.anchors.ListRecomputeIDs(store, onlyUnpositioned)
	if err != nil {
		return summary, s.failRun(store, runID, start, err)
	}
	summary.Total = len(ids)
	if err := s.runs.MarkRunning(store, runID, len(ids)); err != nil {
		return summary, s.failRun(store, runID, start, err)
	}
	log.Info(ctx, "batch recompute started", logging.Int("anchors", len(ids)), logging.Bool("only_unpositioned", onlyUnpositioned))

	var interrupted error
	err = database.Transaction(store, s.db, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				interrupted = err
				return nil
			}
			out, err := s.recalculate(store, tx, id, observability.ModeBatch)
			if err != nil {
				return fmt.Errorf("anchor %d: %w", id, err)
			}
			switch out.Result {
			case observability.OutcomeSolved3D, observability.OutcomeSolved2D:
				summary.Updated++
			case observability.OutcomeDegenerate:
				summary.Failed++
			default:
				summary.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return summary, s.failRun(store, runID, start, err)
	}
	if interrupted != nil {
		return summary, s.failRun(store, runID, start, fmt.Errorf("interrupted: %w", interrupted))
	}

	if err := s.runs.MarkCompleted(store, runID, summary.Updated, summary.Skipped, summary.Failed); err != nil {
		return summary, err
	}
	s.metrics.ObserveBatch(time.Since(start), true)
	log.Info(ctx, "batch recompute completed",
		logging.Int("total", summary.Total),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", time.Since(start)))
	return summary, nil
}

func (s *PositioningService) failRun(ctx context.Context, runID int64, start time.Time, cause error) error {
	s.metrics.ObserveBatch(time.Since(start), false)
	s.logger.Error(ctx, "batch recompute failed", logging.Int64("run_id", runID), logging.Err(cause))
	if err := s.runs.MarkFailed(ctx, runID, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
