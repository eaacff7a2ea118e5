package routines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/gymtracker/internal/apperrors"
	"github.com/2beens/gymtracker/internal/kvstore"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const StorageKey = "workoutRoutines"

var ErrRoutineNotFound = errors.New("routine not found")

type Repo struct {
	store          kvstore.Store
	metricsManager *metrics.Manager

	NowFunc func() time.Time
	IDFunc  func() string
}

func NewRepo(store kvstore.Store, metricsManager *metrics.Manager) *Repo {
	return &Repo{
		store:          store,
		metricsManager: metricsManager,
		NowFunc:        time.Now,
		IDFunc:         uuid.NewString,
	}
}

// List returns all stored routines in stored order.
// On a read or decode failure it returns an empty slice together with a
// *apperrors.StorageError, so callers can log and carry on.
func (r *Repo) List(ctx context.Context) (_ []Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	routines, err := r.load(ctx)
	if err != nil {
		return []Routine{}, err
	}
	span.SetAttributes(attribute.Int("count", len(routines)))
	return routines, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	routines, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, routine := range routines {
		if routine.ID == id {
			return &routine, nil
		}
	}
	return nil, ErrRoutineNotFound
}

// Save validates the draft and writes it. When existingID names a stored
// routine it is replaced in place, keeping its id and creation time;
// otherwise a new routine is appended.
func (r *Repo) Save(ctx context.Context, draft Draft, existingID string) (_ *Routine, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("existing_id", existingID))

	if err := validateDraft(draft); err != nil {
		r.metricsManager.CounterValidationErrors.Inc()
		return nil, err
	}

	routines, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	exercises := cloneExercises(draft.Exercises)
	for i := range exercises {
		exercises[i].Name = strings.TrimSpace(exercises[i].Name)
		if exercises[i].ID == "" {
			exercises[i].ID = r.IDFunc()
		}
	}

	saved := Routine{
		Name:             strings.TrimSpace(draft.Name),
		Exercises:        exercises,
		ExercisesSummary: Summary(exercises),
	}

	replaced := false
	if existingID != "" {
		for i := range routines {
			if routines[i].ID != existingID {
				continue
			}
			saved.ID = routines[i].ID
			saved.CreatedAt = routines[i].CreatedAt
			routines[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		if existingID != "" {
			log.Warnf("routines: edited routine [%s] no longer exists, saving as new", existingID)
		}
		saved.ID = r.IDFunc()
		saved.CreatedAt = r.NowFunc()
		routines = append(routines, saved)
	}

	if err := r.persist(ctx, routines); err != nil {
		return nil, err
	}

	r.metricsManager.CounterRoutinesSaved.Inc()
	return &saved, nil
}

// Delete removes the routine with the given id. Deleting an unknown id is not an error.
func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.routines.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	routines, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := make([]Routine, 0, len(routines))
	for _, routine := range routines {
		if routine.ID != id {
			kept = append(kept, routine)
		}
	}

	return r.persist(ctx, kept)
}

func (r *Repo) load(ctx context.Context) ([]Routine, error) {
	raw, found, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("read", StorageKey).Inc()
		return nil, apperrors.NewStorageReadError(StorageKey, err)
	}
	if !found || raw == "" {
		return []Routine{}, nil
	}

	var routines []Routine
	if err := json.Unmarshal([]byte(raw), &routines); err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("read", StorageKey).Inc()
		return nil, apperrors.NewStorageReadError(StorageKey, fmt.Errorf("unmarshal routines: %w", err))
	}
	if routines == nil {
		routines = []Routine{}
	}
	return routines, nil
}

func (r *Repo) persist(ctx context.Context, routines []Routine) error {
	raw, err := json.Marshal(routines)
	if err != nil {
		return apperrors.NewStorageWriteError(StorageKey, fmt.Errorf("marshal routines: %w", err))
	}
	if err := r.store.Set(ctx, StorageKey, string(raw)); err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("write", StorageKey).Inc()
		return apperrors.NewStorageWriteError(StorageKey, err)
	}
	return nil
}

func validateDraft(draft Draft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return apperrors.NewValidationError("name", "routine name is required")
	}
	if len(draft.Exercises) == 0 {
		return apperrors.NewValidationError("exercises", "select at least one exercise")
	}
	for i, ex := range draft.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		if strings.TrimSpace(ex.Name) == "" {
			return apperrors.NewValidationError(field+".name", "exercise name is required")
		}
		if ex.Sets != nil && *ex.Sets <= 0 {
			return apperrors.NewValidationError(field+".sets", "sets must be positive")
		}
		if ex.Reps != nil && *ex.Reps <= 0 {
			return apperrors.NewValidationError(field+".reps", "reps must be positive")
		}
	}
	return nil
}
