// Package session is the workout session engine: the one mutable workout in
// progress, its rest timer and live aggregates, and the commit to history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/gymtracker/internal/apperrors"
	"github.com/2beens/gymtracker/internal/gymstats/notify"
	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/timer"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRestSeconds = 90
	tickInterval       = time.Second
)

var (
	ErrEmptyWorkout    = errors.New("workout has no completed sets")
	ErrSessionClosed   = errors.New("workout session is closed")
	ErrIndexOutOfRange = errors.New("exercise or set index out of range")
)

type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=session_test

type historyRepo interface {
	List(ctx context.Context) ([]workouts.HistoryItem, error)
	Append(ctx context.Context, item workouts.HistoryItem) error
}

type routineRepo interface {
	Get(ctx context.Context, id string) (*routines.Routine, error)
	Save(ctx context.Context, draft routines.Draft, existingID string) (*routines.Routine, error)
}

type Params struct {
	Routine  routines.Routine
	History  historyRepo
	Routines routineRepo
	Notifier notify.Notifier
	Metrics  *metrics.Manager

	// DefaultRestSeconds is the initial rest duration of every exercise.
	DefaultRestSeconds int

	NowFunc   func() time.Time
	IDFunc    func() string
	NewTicker timer.NewTickerFunc
}

type Stats struct {
	DurationSeconds int     `json:"durationSeconds"`
	Volume          float64 `json:"volume"`
	CompletedSets   int     `json:"completedSets"`
	TotalSets       int     `json:"totalSets"`
}

type CompleteResult struct {
	Completed bool         `json:"completed"`
	Rest      timer.Status `json:"rest"`
}

type Session struct {
	mu       sync.Mutex
	commitMu sync.Mutex

	routine   routines.Routine
	exercises []workouts.WorkoutExercise
	startTime time.Time

	durationSeconds int
	volume          float64
	completedSets   int

	// commit progress, so a retry never appends the same workout twice
	pendingItem  *workouts.HistoryItem
	historySaved bool
	routineSaved bool

	started     bool
	closed      bool
	cancelLoops context.CancelFunc
	loopsWG     sync.WaitGroup

	restTimer      *timer.RestTimer
	history        historyRepo
	routines       routineRepo
	metricsManager *metrics.Manager

	now       func() time.Time
	newID     func() string
	newTicker timer.NewTickerFunc
}

// New builds the session state from the routine, seeding set values from the
// most recent workout of each exercise. A history read failure only falls back
// to default values. Notification permission is requested once here; a refusal
// only silences rest notifications.
func New(ctx context.Context, params Params) (*Session, error) {
	if params.History == nil || params.Routines == nil || params.Notifier == nil || params.Metrics == nil {
		return nil, errors.New("session: history, routines, notifier and metrics are required")
	}

	now := params.NowFunc
	if now == nil {
		now = time.Now
	}
	newID := params.IDFunc
	if newID == nil {
		newID = uuid.NewString
	}
	newTicker := params.NewTicker
	if newTicker == nil {
		newTicker = timer.NewRealTicker
	}
	restSeconds := params.DefaultRestSeconds
	if restSeconds <= 0 {
		restSeconds = defaultRestSeconds
	}

	gate := notify.NewGate(params.Notifier)
	if err := gate.Init(ctx); err != nil {
		log.Debugf("session: %s", err)
	}

	s := &Session{
		routine:        params.Routine.Clone(),
		startTime:      now(),
		history:        params.History,
		routines:       params.Routines,
		metricsManager: params.Metrics,
		now:            now,
		newID:          newID,
		newTicker:      newTicker,
	}

	s.restTimer = timer.NewRestTimer(gate)
	s.restTimer.NowFunc = now
	s.restTimer.OnComplete = func(string) {
		params.Metrics.CounterRestTimersDone.Inc()
	}

	history, err := params.History.List(ctx)
	if err != nil {
		log.Errorf("session: read history, using default set values: %s", err)
		history = nil
	}
	s.exercises = initialize(s.routine, history, restSeconds)
	s.recompute()

	params.Metrics.GaugeActiveSessions.Inc()
	log.Debugf("session: started routine [%s] with %d exercises", s.routine.Name, len(s.exercises))

	return s, nil
}

func initialize(routine routines.Routine, history []workouts.HistoryItem, restSeconds int) []workouts.WorkoutExercise {
	exercises := make([]workouts.WorkoutExercise, 0, len(routine.Exercises))
	for _, ex := range routine.Exercises {
		weight, reps, found := seedFromHistory(history, ex.Name)
		if !found {
			weight = workouts.DefaultWeight
			reps = fmt.Sprintf("%d", ex.PlannedReps())
		}

		planned := ex.PlannedSets()
		if planned < 0 {
			planned = 0
		}
		sets := make([]workouts.WorkoutSet, planned)
		for i := range sets {
			sets[i] = workouts.WorkoutSet{
				SetNumber: i + 1,
				Weight:    weight,
				Reps:      reps,
			}
		}

		exercises = append(exercises, workouts.WorkoutExercise{
			ExerciseID:      ex.ID,
			ExerciseName:    ex.Name,
			Sets:            sets,
			RestTimeSeconds: restSeconds,
		})
	}
	return exercises
}

// seedFromHistory looks only at the most recent workout containing the
// exercise, and within it at the last completed set with weight and reps.
func seedFromHistory(history []workouts.HistoryItem, name string) (weight, reps string, found bool) {
	for _, item := range history {
		if !item.HasExercise(name) {
			continue
		}
		for i := len(item.Exercises) - 1; i >= 0; i-- {
			ex := item.Exercises[i]
			if !workouts.SameExercise(ex.ExerciseName, name) {
				continue
			}
			for j := len(ex.Sets) - 1; j >= 0; j-- {
				set := ex.Sets[j]
				if set.Completed && set.Weight != "" && set.Reps != "" {
					return set.Weight, set.Reps, true
				}
			}
		}
		return "", "", false
	}
	return "", "", false
}

func (s *Session) UpdateSet(exIdx, setIdx int, field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.setLocked(exIdx, setIdx)
	if err != nil {
		return err
	}

	switch field {
	case FieldWeight:
		set.Weight = value
	case FieldReps:
		set.Reps = value
	default:
		return apperrors.NewValidationError("field", fmt.Sprintf("unknown set field %q", field))
	}

	s.recompute()
	return nil
}

// CompleteSet toggles the set. Un-completing has no side effects. Completing
// requires a non-zero weight and reps, moves the exercise to its next set and
// starts the exercise's rest timer.
func (s *Session) CompleteSet(exIdx, setIdx int) (CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.setLocked(exIdx, setIdx)
	if err != nil {
		return CompleteResult{}, err
	}

	if set.Completed {
		set.Completed = false
		s.recompute()
		return CompleteResult{Completed: false, Rest: s.restTimer.Status()}, nil
	}

	if workouts.ParseNumber(set.Weight) == 0 {
		s.metricsManager.CounterValidationErrors.Inc()
		return CompleteResult{}, apperrors.NewValidationError(string(FieldWeight), "enter the weight before completing the set")
	}
	if workouts.ParseNumber(set.Reps) == 0 {
		s.metricsManager.CounterValidationErrors.Inc()
		return CompleteResult{}, apperrors.NewValidationError(string(FieldReps), "enter the reps before completing the set")
	}

	set.Completed = true
	ex := &s.exercises[exIdx]
	ex.CurrentSet = min(setIdx+1, len(ex.Sets)-1)
	s.recompute()
	s.metricsManager.CounterSetsCompleted.Inc()

	rest := s.restTimer.Start(time.Duration(ex.RestTimeSeconds)*time.Second, ex.ExerciseName)
	return CompleteResult{Completed: true, Rest: rest}, nil
}

// AddNewSet appends a set copying the last set's values.
func (s *Session) AddNewSet(exIdx int) (workouts.WorkoutSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExerciseLocked(exIdx); err != nil {
		return workouts.WorkoutSet{}, err
	}

	ex := &s.exercises[exIdx]
	newSet := workouts.WorkoutSet{
		SetNumber: len(ex.Sets) + 1,
		Weight:    workouts.DefaultWeight,
		Reps:      workouts.DefaultReps,
	}
	if len(ex.Sets) > 0 {
		last := ex.Sets[len(ex.Sets)-1]
		newSet.Weight = last.Weight
		newSet.Reps = last.Reps
	}
	ex.Sets = append(ex.Sets, newSet)

	s.recompute()
	return newSet, nil
}

func (s *Session) SetRestTime(exIdx, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkExerciseLocked(exIdx); err != nil {
		return err
	}
	if seconds <= 0 {
		return apperrors.NewValidationError("restTimeSeconds", "rest time must be positive")
	}
	s.exercises[exIdx].RestTimeSeconds = seconds
	return nil
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		DurationSeconds: s.durationSeconds,
		Volume:          s.volume,
		CompletedSets:   s.completedSets,
		TotalSets:       workouts.CountTotal(s.exercises),
	}
}

// Snapshot is a deep copy of the exercises for rendering.
func (s *Session) Snapshot() []workouts.WorkoutExercise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return workouts.CloneExercises(s.exercises)
}

func (s *Session) Routine() routines.Routine {
	return s.routine.Clone()
}

func (s *Session) StartTime() time.Time {
	return s.startTime
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) setLocked(exIdx, setIdx int) (*workouts.WorkoutSet, error) {
	if err := s.checkExerciseLocked(exIdx); err != nil {
		return nil, err
	}
	sets := s.exercises[exIdx].Sets
	if setIdx < 0 || setIdx >= len(sets) {
		return nil, fmt.Errorf("%w: set %d of exercise %d", ErrIndexOutOfRange, setIdx, exIdx)
	}
	return &sets[setIdx], nil
}

func (s *Session) checkExerciseLocked(exIdx int) error {
	if s.closed {
		return ErrSessionClosed
	}
	if exIdx < 0 || exIdx >= len(s.exercises) {
		return fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, exIdx)
	}
	return nil
}

// recompute derives the aggregates from the current state; it never applies deltas.
func (s *Session) recompute() {
	s.volume = workouts.TotalVolume(s.exercises)
	s.completedSets = workouts.CountCompleted(s.exercises)
}

func (s *Session) refreshDuration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.durationSeconds = int(s.now().Sub(s.startTime).Seconds())
}
