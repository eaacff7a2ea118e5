package session

import (
	"context"
	"errors"
	"math"

	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Overflow is an exercise that ended with more sets than its routine template plans.
type Overflow struct {
	ExerciseName string `json:"exerciseName"`
	PlannedSets  int    `json:"plannedSets"`
	SessionSets  int    `json:"sessionSets"`
}

type FinishOutcome struct {
	// NeedsDecision is set when some exercises overflowed their template; nothing
	// was saved and the caller must Commit with its choice.
	NeedsDecision bool                  `json:"needsDecision"`
	Overflow      []Overflow            `json:"overflow,omitempty"`
	Item          *workouts.HistoryItem `json:"item,omitempty"`
}

// Finish saves the workout right away when no exercise outgrew its template.
// Otherwise it reports the overflowing exercises and leaves the decision
// between Commit(ctx, false) and Commit(ctx, true) to the caller.
func (s *Session) Finish(ctx context.Context) (*FinishOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.completedSets == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyWorkout
	}
	overflow := s.overflowLocked()
	s.mu.Unlock()

	if len(overflow) > 0 {
		return &FinishOutcome{
			NeedsDecision: true,
			Overflow:      overflow,
		}, nil
	}

	item, err := s.Commit(ctx, false)
	if err != nil {
		return nil, err
	}
	return &FinishOutcome{Item: item}, nil
}

// Commit appends the workout to history and, with updateRoutine, raises the
// planned sets of the routine exercises that were outgrown. On failure the
// session stays open with its state intact; a retry skips what already
// succeeded. On success the session is closed.
func (s *Session) Commit(ctx context.Context, updateRoutine bool) (*workouts.HistoryItem, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.completedSets == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyWorkout
	}
	if !s.historySaved {
		// rebuilt on every attempt until saved, keeping the same id
		var id string
		if s.pendingItem != nil {
			id = s.pendingItem.ID
		} else {
			id = s.newID()
		}
		item := s.buildItemLocked(id)
		s.pendingItem = &item
	}
	item := s.pendingItem.Clone()
	historySaved := s.historySaved
	routineSaved := s.routineSaved
	exercises := workouts.CloneExercises(s.exercises)
	s.mu.Unlock()

	var errs error
	if !historySaved {
		if err := s.history.Append(ctx, item); err != nil {
			log.Errorf("session: save workout [%s]: %s", item.ID, err)
			errs = multierr.Append(errs, err)
		} else {
			s.mu.Lock()
			s.historySaved = true
			s.mu.Unlock()
			s.metricsManager.CounterWorkoutsSaved.Inc()
			s.metricsManager.HistWorkoutDuration.Observe(float64(item.DurationMinutes))
			s.metricsManager.HistWorkoutVolume.Observe(item.Volume())
		}
	}

	if updateRoutine && !routineSaved {
		if err := s.backPropagate(ctx, exercises); err != nil {
			log.Errorf("session: update routine [%s]: %s", s.routine.ID, err)
			errs = multierr.Append(errs, err)
		} else {
			s.mu.Lock()
			s.routineSaved = true
			s.mu.Unlock()
		}
	}

	if errs != nil {
		return nil, errs
	}

	log.Infof("session: workout [%s] saved, %d/%d sets", item.ID, item.CompletedSets, item.TotalSets)
	if err := s.Close(); err != nil {
		log.Warnf("session: close after commit: %s", err)
	}
	return &item, nil
}

func (s *Session) buildItemLocked(id string) workouts.HistoryItem {
	end := s.now()
	return workouts.HistoryItem{
		ID:              id,
		RoutineID:       s.routine.ID,
		RoutineName:     s.routine.Name,
		Exercises:       workouts.CloneExercises(s.exercises),
		StartTime:       s.startTime,
		EndTime:         end,
		DurationMinutes: int(math.Round(end.Sub(s.startTime).Minutes())),
		CompletedSets:   workouts.CountCompleted(s.exercises),
		TotalSets:       workouts.CountTotal(s.exercises),
	}
}

// overflowLocked compares every session exercise with the routine exercise it was built from.
func (s *Session) overflowLocked() []Overflow {
	var overflow []Overflow
	for i, ex := range s.exercises {
		if i >= len(s.routine.Exercises) {
			break
		}
		planned := s.routine.Exercises[i].PlannedSets()
		if len(ex.Sets) > planned {
			overflow = append(overflow, Overflow{
				ExerciseName: ex.ExerciseName,
				PlannedSets:  planned,
				SessionSets:  len(ex.Sets),
			})
		}
	}
	return overflow
}

// backPropagate re-reads the routine and raises Sets for every template
// exercise whose name matches an outgrown session exercise. Matching is by
// name; template and session exercise ids may have drifted apart.
func (s *Session) backPropagate(ctx context.Context, exercises []workouts.WorkoutExercise) error {
	stored, err := s.routines.Get(ctx, s.routine.ID)
	if errors.Is(err, routines.ErrRoutineNotFound) {
		log.Warnf("session: routine [%s] was deleted, nothing to update", s.routine.ID)
		return nil
	}
	if err != nil {
		return err
	}

	updated := stored.Clone()
	changed := false
	for i := range updated.Exercises {
		template := &updated.Exercises[i]
		for _, ex := range exercises {
			if workouts.SameExercise(ex.ExerciseName, template.Name) && len(ex.Sets) > template.PlannedSets() {
				template.Sets = routines.IntPtr(len(ex.Sets))
				changed = true
				break
			}
		}
	}
	if !changed {
		return nil
	}

	_, err = s.routines.Save(ctx, routines.Draft{
		Name:      updated.Name,
		Exercises: updated.Exercises,
	}, updated.ID)
	if err != nil {
		return err
	}

	s.metricsManager.CounterRoutinesUpdated.Inc()
	return nil
}
