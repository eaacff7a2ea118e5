package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterSetsCompleted    prometheus.Counter
	CounterWorkoutsSaved    prometheus.Counter
	CounterRoutinesSaved    prometheus.Counter
	CounterRoutinesUpdated  prometheus.Counter
	CounterRestTimersDone   prometheus.Counter
	CounterStorageErrors    *prometheus.CounterVec
	CounterValidationErrors prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge

	// histograms
	HistWorkoutDuration prometheus.Histogram
	HistWorkoutVolume   prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("gymtracker", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gymtracker", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterSetsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_completed",
		Help:      "The total number of sets marked as completed",
	})
	counterWorkoutsSaved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_saved",
		Help:      "The total number of workouts committed to history",
	})
	counterRoutinesSaved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "routines_saved",
		Help:      "The total number of created or edited routines",
	})
	counterRoutinesUpdated := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "routines_back_propagated",
		Help:      "The total number of routines updated with set counts from a finished workout",
	})
	counterRestTimersDone := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rest_timers_done",
		Help:      "The total number of rest timers that ran to completion",
	})
	counterStorageErrors := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "storage_errors",
		Help:      "The total number of key-value store failures",
	}, []string{"op", "key"})
	counterValidationErrors := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "validation_errors",
		Help:      "The total number of rejected user inputs",
	})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Current number of open workout sessions",
	})

	histWorkoutDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_duration_minutes",
		Help:      "Duration of committed workouts in minutes",
		Buckets:   []float64{5, 15, 30, 45, 60, 75, 90, 120, 180},
	})
	histWorkoutVolume := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_volume",
		Help:      "Volume (weight x reps over completed sets) of committed workouts",
		Buckets:   prometheus.ExponentialBuckets(500, 2, 10),
	})

	return &Manager{
		CounterSetsCompleted:    counterSetsCompleted,
		CounterWorkoutsSaved:    counterWorkoutsSaved,
		CounterRoutinesSaved:    counterRoutinesSaved,
		CounterRoutinesUpdated:  counterRoutinesUpdated,
		CounterRestTimersDone:   counterRestTimersDone,
		CounterStorageErrors:    counterStorageErrors,
		CounterValidationErrors: counterValidationErrors,
		GaugeActiveSessions:     gaugeActiveSessions,
		HistWorkoutDuration:     histWorkoutDuration,
		HistWorkoutVolume:       histWorkoutVolume,
	}
}
