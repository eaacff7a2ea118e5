package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/2beens/gymtracker/internal/apperrors"
	"github.com/2beens/gymtracker/internal/gymstats/notify/notifymock"
	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/session"
	"github.com/2beens/gymtracker/internal/gymstats/timer"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"
	"github.com/2beens/gymtracker/internal/kvstore"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var sessionStart = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ctrl         *gomock.Controller
	clock        *fakeClock
	routinesRepo *routines.Repo
	historyRepo  *workouts.HistoryRepo
	notifier     *notifymock.MockNotifier
	metrics      *metrics.Manager
}

func newTestEnv(t *testing.T, notificationsGranted bool) *testEnv {
	ctrl := gomock.NewController(t)
	store := kvstore.NewMemoryStore()
	metricsManager := metrics.NewTestManager()

	notifier := notifymock.NewMockNotifier(ctrl)
	notifier.EXPECT().RequestPermission(gomock.Any()).Return(notificationsGranted, nil).AnyTimes()

	routinesRepo := routines.NewRepo(store, metricsManager)
	routinesRepo.NowFunc = func() time.Time {
		return sessionStart.AddDate(0, 0, -7)
	}

	return &testEnv{
		ctrl:         ctrl,
		clock:        &fakeClock{now: sessionStart},
		routinesRepo: routinesRepo,
		historyRepo:  workouts.NewHistoryRepo(store, workouts.MaxHistoryItems, metricsManager),
		notifier:     notifier,
		metrics:      metricsManager,
	}
}

func (e *testEnv) saveRoutine(t *testing.T, name string, exercises ...routines.Exercise) routines.Routine {
	t.Helper()
	saved, err := e.routinesRepo.Save(context.Background(), routines.Draft{Name: name, Exercises: exercises}, "")
	require.NoError(t, err)
	return *saved
}

func (e *testEnv) params(routine routines.Routine) session.Params {
	return session.Params{
		Routine:            routine,
		History:            e.historyRepo,
		Routines:           e.routinesRepo,
		Notifier:           e.notifier,
		Metrics:            e.metrics,
		DefaultRestSeconds: 90,
		NowFunc:            e.clock.Now,
		IDFunc:             func() string { return "workout-1" },
	}
}

func (e *testEnv) newSession(t *testing.T, routine routines.Routine) *session.Session {
	t.Helper()
	return e.newSessionWithParams(t, e.params(routine))
}

func (e *testEnv) newSessionWithParams(t *testing.T, params session.Params) *session.Session {
	t.Helper()
	s, err := session.New(context.Background(), params)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	return s
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := session.New(context.Background(), session.Params{})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	env := newTestEnv(t, true)
	routine := env.saveRoutine(t, "Legs",
		routines.Exercise{Name: "Squats", Sets: routines.IntPtr(5)},
		routines.Exercise{Name: "Lunges", Reps: routines.IntPtr(12)},
	)
	s := env.newSession(t, routine)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)

	assert.Equal(t, routine.Exercises[0].ID, snapshot[0].ExerciseID)
	assert.Equal(t, "Squats", snapshot[0].ExerciseName)
	require.Len(t, snapshot[0].Sets, 5)
	for i, set := range snapshot[0].Sets {
		assert.Equal(t, workouts.WorkoutSet{SetNumber: i + 1, Weight: "0", Reps: "10"}, set)
	}
	assert.Equal(t, 90, snapshot[0].RestTimeSeconds)

	require.Len(t, snapshot[1].Sets, 3)
	assert.Equal(t, "12", snapshot[1].Sets[0].Reps)

	assert.Equal(t, session.Stats{TotalSets: 8}, s.Stats())
	assert.Equal(t, sessionStart, s.StartTime())
	assert.False(t, s.Rest().Running)
}

func TestNew_SeedsFromMostRecentHistory(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	// oldest first
	require.NoError(t, env.historyRepo.Append(ctx, workouts.HistoryItem{
		ID: "old",
		Exercises: []workouts.WorkoutExercise{
			{ExerciseName: "Squats", Sets: []workouts.WorkoutSet{{SetNumber: 1, Weight: "100", Reps: "5", Completed: true}}},
			{ExerciseName: "Bench Press", Sets: []workouts.WorkoutSet{{SetNumber: 1, Weight: "120", Reps: "3", Completed: true}}},
		},
	}))
	require.NoError(t, env.historyRepo.Append(ctx, workouts.HistoryItem{
		ID: "recent",
		Exercises: []workouts.WorkoutExercise{
			// most recent squats never completed: no seeding from the older workout
			{ExerciseName: "squats", Sets: []workouts.WorkoutSet{{SetNumber: 1, Weight: "110", Reps: "5"}}},
			{ExerciseName: "BENCH PRESS", Sets: []workouts.WorkoutSet{
				{SetNumber: 1, Weight: "135", Reps: "8", Completed: true},
				{SetNumber: 2, Weight: "140", Reps: "", Completed: true},
				{SetNumber: 3, Weight: "145", Reps: "6", Completed: false},
			}},
		},
	}))

	routine := env.saveRoutine(t, "Mixed",
		routines.Exercise{Name: "Bench Press"},
		routines.Exercise{Name: "Squats", Reps: routines.IntPtr(6)},
		routines.Exercise{Name: "Rows"},
	)
	s := env.newSession(t, routine)
	snapshot := s.Snapshot()

	for _, set := range snapshot[0].Sets {
		assert.Equal(t, "135", set.Weight)
		assert.Equal(t, "8", set.Reps)
	}
	assert.Equal(t, "0", snapshot[1].Sets[0].Weight)
	assert.Equal(t, "6", snapshot[1].Sets[0].Reps)
	assert.Equal(t, "0", snapshot[2].Sets[0].Weight)
	assert.Equal(t, "10", snapshot[2].Sets[0].Reps)
}

func TestNew_HistoryReadFailureFallsBack(t *testing.T) {
	env := newTestEnv(t, true)
	historyMock := NewMockhistoryRepo(env.ctrl)
	historyMock.EXPECT().List(gomock.Any()).Return([]workouts.HistoryItem{}, apperrors.NewStorageReadError(workouts.StorageKey, assert.AnError))

	params := env.params(routines.Routine{
		ID:        "r1",
		Name:      "Legs",
		Exercises: []routines.Exercise{{ID: "e1", Name: "Squats", Reps: routines.IntPtr(8)}},
	})
	params.History = historyMock
	s := env.newSessionWithParams(t, params)

	snapshot := s.Snapshot()
	require.Len(t, snapshot[0].Sets, 3)
	assert.Equal(t, "0", snapshot[0].Sets[0].Weight)
	assert.Equal(t, "8", snapshot[0].Sets[0].Reps)
}

func TestSession_UpdateSet(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press"}))

	require.NoError(t, s.UpdateSet(0, 1, session.FieldWeight, "62,5"))
	require.NoError(t, s.UpdateSet(0, 1, session.FieldReps, ""))
	set := s.Snapshot()[0].Sets[1]
	assert.Equal(t, "62,5", set.Weight)
	assert.Equal(t, "", set.Reps)

	assert.ErrorIs(t, s.UpdateSet(1, 0, session.FieldWeight, "1"), session.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateSet(0, 3, session.FieldWeight, "1"), session.ErrIndexOutOfRange)
	assert.ErrorIs(t, s.UpdateSet(-1, 0, session.FieldWeight, "1"), session.ErrIndexOutOfRange)
	assert.True(t, apperrors.IsValidation(s.UpdateSet(0, 0, "tempo", "1")))
}

func TestSession_CompleteSet_Toggle(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press"}))
	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "60"))

	result, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.True(t, result.Rest.Running)
	assert.Equal(t, 90*time.Second, result.Rest.Remaining)
	assert.Equal(t, "Bench Press", result.Rest.Label)

	stats := s.Stats()
	assert.Equal(t, 1, stats.CompletedSets)
	assert.Equal(t, 600.0, stats.Volume)
	assert.Equal(t, 1, s.Snapshot()[0].CurrentSet)

	env.clock.Advance(10 * time.Second)
	result, err = s.CompleteSet(0, 0)
	require.NoError(t, err)
	assert.False(t, result.Completed)
	// the running countdown was not restarted
	assert.Equal(t, 80*time.Second, s.Rest().Remaining)

	stats = s.Stats()
	assert.Equal(t, 0, stats.CompletedSets)
	assert.Equal(t, 0.0, stats.Volume)
	assert.False(t, s.Snapshot()[0].Sets[0].Completed)
}

func TestSession_CompleteSet_Validation(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press"}))

	// weight defaults to "0"
	_, err := s.CompleteSet(0, 0)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, ""))
	_, err = s.CompleteSet(0, 0)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "60"))
	require.NoError(t, s.UpdateSet(0, 0, session.FieldReps, "0"))
	_, err = s.CompleteSet(0, 0)
	assert.True(t, apperrors.IsValidation(err))

	assert.False(t, s.Snapshot()[0].Sets[0].Completed)
	assert.False(t, s.Rest().Running)
	assert.Equal(t, 0, s.Stats().CompletedSets)

	_, err = s.CompleteSet(0, 9)
	assert.ErrorIs(t, err, session.ErrIndexOutOfRange)
}

func TestSession_Stats_EditedCompletedSetAddsNoVolume(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press"}))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)

	require.NoError(t, s.UpdateSet(0, 1, session.FieldWeight, "50"))
	_, err = s.CompleteSet(0, 1)
	require.NoError(t, err)
	require.NoError(t, s.UpdateSet(0, 1, session.FieldWeight, "abc"))

	// completed sets count, unparseable weight contributes nothing
	require.NoError(t, s.UpdateSet(0, 2, session.FieldWeight, "50"))

	stats := s.Stats()
	assert.Equal(t, 1000.0, stats.Volume)
	assert.Equal(t, 2, stats.CompletedSets)
	assert.Equal(t, 3, stats.TotalSets)
	assert.True(t, s.Snapshot()[0].Sets[1].Completed)
}

func TestSession_CompleteSet_CurrentSetAndRestPerExercise(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Full",
		routines.Exercise{Name: "Squats"},
		routines.Exercise{Name: "Rows"},
	))
	require.NoError(t, s.SetRestTime(1, 45))
	assert.True(t, apperrors.IsValidation(s.SetRestTime(1, 0)))
	assert.ErrorIs(t, s.SetRestTime(2, 30), session.ErrIndexOutOfRange)

	require.NoError(t, s.UpdateSet(0, 2, session.FieldWeight, "100"))
	result, err := s.CompleteSet(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, result.Rest.Remaining)
	// last set stays the current one
	assert.Equal(t, 2, s.Snapshot()[0].CurrentSet)

	require.NoError(t, s.UpdateSet(1, 0, session.FieldWeight, "50"))
	result, err = s.CompleteSet(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, result.Rest.Remaining)
	assert.Equal(t, "Rows", result.Rest.Label)
	assert.Equal(t, 1, s.Snapshot()[1].CurrentSet)

	s.SkipRest()
	assert.False(t, s.Rest().Running)
}

func TestSession_AddNewSet(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press", Sets: routines.IntPtr(1)}))
	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "70"))
	require.NoError(t, s.UpdateSet(0, 0, session.FieldReps, "6"))

	added, err := s.AddNewSet(0)
	require.NoError(t, err)
	assert.Equal(t, workouts.WorkoutSet{SetNumber: 2, Weight: "70", Reps: "6"}, added)
	assert.Len(t, s.Snapshot()[0].Sets, 2)
	assert.Equal(t, 2, s.Stats().TotalSets)

	_, err = s.AddNewSet(3)
	assert.ErrorIs(t, err, session.ErrIndexOutOfRange)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	env := newTestEnv(t, true)
	s := env.newSession(t, env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press"}))

	snapshot := s.Snapshot()
	snapshot[0].Sets[0].Weight = "500"
	assert.Equal(t, "0", s.Snapshot()[0].Sets[0].Weight)
}

func TestSession_Finish_Empty(t *testing.T) {
	env := newTestEnv(t, true)
	historyMock := NewMockhistoryRepo(env.ctrl)
	// no Append expected
	historyMock.EXPECT().List(gomock.Any()).Return([]workouts.HistoryItem{}, nil)

	params := env.params(env.saveRoutine(t, "Full",
		routines.Exercise{Name: "Squats"},
		routines.Exercise{Name: "Bench Press"},
		routines.Exercise{Name: "Rows"},
	))
	params.History = historyMock
	s := env.newSessionWithParams(t, params)
	require.Equal(t, 9, s.Stats().TotalSets)

	outcome, err := s.Finish(context.Background())
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, session.ErrEmptyWorkout)
	assert.False(t, s.Closed())

	_, err = s.Commit(context.Background(), true)
	assert.ErrorIs(t, err, session.ErrEmptyWorkout)
}

func TestSession_Finish_NoOverflowSavesRightAway(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	routine := env.saveRoutine(t, "Push", routines.Exercise{Name: "Bench Press", Sets: routines.IntPtr(2)})
	s := env.newSession(t, routine)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "60"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)

	env.clock.Advance(44*time.Minute + 31*time.Second)
	outcome, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.False(t, outcome.NeedsDecision)
	require.NotNil(t, outcome.Item)

	item := outcome.Item
	assert.Equal(t, "workout-1", item.ID)
	assert.Equal(t, routine.ID, item.RoutineID)
	assert.Equal(t, "Push", item.RoutineName)
	assert.Equal(t, sessionStart, item.StartTime)
	assert.Equal(t, sessionStart.Add(44*time.Minute+31*time.Second), item.EndTime)
	assert.Equal(t, 45, item.DurationMinutes)
	assert.Equal(t, 1, item.CompletedSets)
	assert.Equal(t, 2, item.TotalSets)

	history, err := env.historyRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, *item, history[0])

	// committed sessions are closed
	assert.True(t, s.Closed())
	assert.False(t, s.Rest().Running)
	assert.ErrorIs(t, s.UpdateSet(0, 0, session.FieldWeight, "1"), session.ErrSessionClosed)
	_, err = s.Finish(ctx)
	assert.ErrorIs(t, err, session.ErrSessionClosed)
}

func TestSession_BackPropagation(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	routine := env.saveRoutine(t, "Legs",
		routines.Exercise{Name: "Squats", Sets: routines.IntPtr(3), Reps: routines.IntPtr(5)},
		routines.Exercise{Name: "Bench Press", Sets: routines.IntPtr(3)},
		routines.Exercise{Name: "Rows"},
	)
	s := env.newSession(t, routine)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	_, err = s.AddNewSet(0)
	require.NoError(t, err)
	_, err = s.AddNewSet(0)
	require.NoError(t, err)

	outcome, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.NeedsDecision)
	assert.Nil(t, outcome.Item)
	assert.Equal(t, []session.Overflow{{ExerciseName: "Squats", PlannedSets: 3, SessionSets: 5}}, outcome.Overflow)

	// nothing saved until the decision is made
	history, err := env.historyRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.False(t, s.Closed())

	item, err := s.Commit(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 11, item.TotalSets)

	updated, err := env.routinesRepo.Get(ctx, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, routine.ID, updated.ID)
	assert.Equal(t, routine.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.Exercises[0].Sets)
	assert.Equal(t, 5, *updated.Exercises[0].Sets)
	assert.Equal(t, 5, *updated.Exercises[0].Reps)
	assert.Equal(t, 3, *updated.Exercises[1].Sets)
	assert.Nil(t, updated.Exercises[2].Sets)
	assert.Equal(t, routines.Summary(updated.Exercises), updated.ExercisesSummary)

	history, err = env.historyRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSession_CommitWithoutRoutineUpdate(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	routine := env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats", Sets: routines.IntPtr(1)})
	s := env.newSession(t, routine)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	_, err = s.AddNewSet(0)
	require.NoError(t, err)

	_, err = s.Commit(ctx, false)
	require.NoError(t, err)

	stored, err := env.routinesRepo.Get(ctx, routine.ID)
	require.NoError(t, err)
	assert.Equal(t, routine, *stored)
}

func TestSession_CommitRetryDoesNotDuplicateHistory(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	routine := env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats", Sets: routines.IntPtr(1)})

	routinesMock := NewMockroutineRepo(env.ctrl)
	gomock.InOrder(
		routinesMock.EXPECT().Get(gomock.Any(), routine.ID).Return(&routine, nil),
		routinesMock.EXPECT().Save(gomock.Any(), gomock.Any(), routine.ID).
			Return(nil, apperrors.NewStorageWriteError(routines.StorageKey, assert.AnError)),
		routinesMock.EXPECT().Get(gomock.Any(), routine.ID).Return(&routine, nil),
		routinesMock.EXPECT().Save(gomock.Any(), gomock.Any(), routine.ID).
			DoAndReturn(func(_ context.Context, draft routines.Draft, _ string) (*routines.Routine, error) {
				assert.Equal(t, 2, *draft.Exercises[0].Sets)
				return &routine, nil
			}),
	)

	params := env.params(routine)
	params.Routines = routinesMock
	s := env.newSessionWithParams(t, params)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	_, err = s.AddNewSet(0)
	require.NoError(t, err)

	_, err = s.Commit(ctx, true)
	assert.True(t, apperrors.IsStorageWrite(err))
	assert.False(t, s.Closed())
	// state intact for the retry
	assert.Equal(t, 1, s.Stats().CompletedSets)

	item, err := s.Commit(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "workout-1", item.ID)

	history, err := env.historyRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSession_CommitBothWritesFail(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	historyMock := NewMockhistoryRepo(env.ctrl)
	routinesMock := NewMockroutineRepo(env.ctrl)
	historyMock.EXPECT().List(gomock.Any()).Return([]workouts.HistoryItem{}, nil)
	historyMock.EXPECT().Append(gomock.Any(), gomock.Any()).Return(apperrors.NewStorageWriteError(workouts.StorageKey, assert.AnError))
	routinesMock.EXPECT().Get(gomock.Any(), "r1").Return(nil, apperrors.NewStorageReadError(routines.StorageKey, assert.AnError))

	params := env.params(routines.Routine{ID: "r1", Name: "Legs", Exercises: []routines.Exercise{{Name: "Squats"}}})
	params.History = historyMock
	params.Routines = routinesMock
	s := env.newSessionWithParams(t, params)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)

	_, err = s.Commit(ctx, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageWrite(err))
	assert.True(t, apperrors.IsStorageRead(err))
	assert.False(t, s.Closed())
}

func TestSession_BackPropagation_RoutineDeleted(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	routine := env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats", Sets: routines.IntPtr(1)})
	s := env.newSession(t, routine)
	require.NoError(t, env.routinesRepo.Delete(ctx, routine.ID))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	_, err = s.AddNewSet(0)
	require.NoError(t, err)

	_, err = s.Commit(ctx, true)
	require.NoError(t, err)

	list, err := env.routinesRepo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type fakeTickers struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped int
}

func (f *fakeTickers) New(time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time)
	f.mu.Lock()
	f.chans = append(f.chans, ch)
	f.mu.Unlock()
	return ch, func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}
}

func (f *fakeTickers) count() (created, stopped int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chans), f.stopped
}

func (f *fakeTickers) tickAll(now time.Time) {
	f.mu.Lock()
	chans := append([]chan time.Time(nil), f.chans...)
	f.mu.Unlock()
	for _, ch := range chans {
		ch <- now
	}
}

func TestSession_PeriodicLoops(t *testing.T) {
	env := newTestEnv(t, true)
	tickers := &fakeTickers{}
	fired := make(chan struct{}, 4)
	env.notifier.EXPECT().FireNow(timer.CompletionTitle, "Squats: time for the next set").
		Do(func(string, string) { fired <- struct{}{} }).
		Times(1)

	params := env.params(env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats"}))
	params.NewTicker = tickers.New
	s, err := session.New(context.Background(), params)
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())
	require.Eventually(t, func() bool {
		created, _ := tickers.count()
		return created == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err = s.CompleteSet(0, 0)
	require.NoError(t, err)

	env.clock.Advance(30 * time.Second)
	tickers.tickAll(env.clock.Now())
	assert.Eventually(t, func() bool {
		return s.Stats().DurationSeconds == 30
	}, time.Second, time.Millisecond)
	assert.True(t, s.Rest().Running)

	env.clock.Advance(61 * time.Second)
	tickers.tickAll(env.clock.Now())
	select {
	case <-fired:
	case <-time.After(time.Second):
		require.FailNow(t, "rest completion not notified")
	}
	assert.Eventually(t, func() bool {
		return s.Stats().DurationSeconds == 91
	}, time.Second, time.Millisecond)

	// further ticks never notify again
	env.clock.Advance(time.Second)
	tickers.tickAll(env.clock.Now())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, stopped := tickers.count()
	assert.Equal(t, 2, stopped)

	// closed sessions ignore start and mutations
	s.Start(context.Background())
	created, _ := tickers.count()
	assert.Equal(t, 2, created)
	_, err = s.AddNewSet(0)
	assert.ErrorIs(t, err, session.ErrSessionClosed)
}

func TestSession_ResumeAfterSuspension(t *testing.T) {
	env := newTestEnv(t, true)
	env.notifier.EXPECT().FireNow(timer.CompletionTitle, gomock.Any()).Times(1)
	s := env.newSession(t, env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats"}))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	_, err := s.CompleteSet(0, 0)
	require.NoError(t, err)

	env.clock.Advance(95 * time.Second)
	status := s.Resume()
	assert.False(t, status.Running)
	assert.Equal(t, 95, s.Stats().DurationSeconds)

	s.Resume()
}

func TestSession_NotificationsDenied(t *testing.T) {
	env := newTestEnv(t, false)
	// no FireNow expected
	s := env.newSession(t, env.saveRoutine(t, "Legs", routines.Exercise{Name: "Squats"}))

	require.NoError(t, s.UpdateSet(0, 0, session.FieldWeight, "100"))
	result, err := s.CompleteSet(0, 0)
	require.NoError(t, err)
	assert.True(t, result.Rest.Running)

	env.clock.Advance(2 * time.Minute)
	assert.False(t, s.Resume().Running)
}
