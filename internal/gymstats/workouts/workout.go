package workouts

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWeight = "0"
	DefaultReps   = "10"
)

type WorkoutSet struct {
	SetNumber int    `json:"setNumber"`
	Weight    string `json:"weight"`
	Reps      string `json:"reps"`
	Completed bool   `json:"completed"`
}

// WorkoutExercise is the session-scoped state of one routine exercise.
// ExerciseID refers back to the routine exercise, ExerciseName is a snapshot.
type WorkoutExercise struct {
	ExerciseID      string       `json:"exerciseId"`
	ExerciseName    string       `json:"exerciseName"`
	Sets            []WorkoutSet `json:"sets"`
	CurrentSet      int          `json:"currentSet"`
	RestTimeSeconds int          `json:"restTimeSeconds"`
}

type HistoryItem struct {
	ID              string            `json:"id"`
	RoutineID       string            `json:"routineId"`
	RoutineName     string            `json:"routineName"`
	Exercises       []WorkoutExercise `json:"exercises"`
	StartTime       time.Time         `json:"startTime"`
	EndTime         time.Time         `json:"endTime"`
	DurationMinutes int               `json:"durationMinutes"`
	CompletedSets   int               `json:"completedSets"`
	TotalSets       int               `json:"totalSets"`
}

// ParseNumber is the one tolerant parse used for every weight/reps computation.
// Surrounding spaces are ignored and a decimal comma is accepted ("62,5").
// Empty, non-numeric, NaN and infinite values all parse as 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// SameExercise reports whether two exercise names refer to the same exercise.
// Matching is by name only, ignoring case and surrounding spaces.
func SameExercise(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// SetVolume is weight x reps for a completed set, 0 otherwise.
func SetVolume(set WorkoutSet) float64 {
	if !set.Completed {
		return 0
	}
	return ParseNumber(set.Weight) * ParseNumber(set.Reps)
}

func (e WorkoutExercise) Volume() float64 {
	var volume float64
	for _, set := range e.Sets {
		volume += SetVolume(set)
	}
	return volume
}

func (e WorkoutExercise) CompletedSets() int {
	completed := 0
	for _, set := range e.Sets {
		if set.Completed {
			completed++
		}
	}
	return completed
}

func (e WorkoutExercise) Clone() WorkoutExercise {
	e.Sets = append([]WorkoutSet(nil), e.Sets...)
	return e
}

func CountCompleted(exercises []WorkoutExercise) int {
	completed := 0
	for _, ex := range exercises {
		completed += ex.CompletedSets()
	}
	return completed
}

func CountTotal(exercises []WorkoutExercise) int {
	total := 0
	for _, ex := range exercises {
		total += len(ex.Sets)
	}
	return total
}

func TotalVolume(exercises []WorkoutExercise) float64 {
	var volume float64
	for _, ex := range exercises {
		volume += ex.Volume()
	}
	return volume
}

func CloneExercises(exercises []WorkoutExercise) []WorkoutExercise {
	cloned := make([]WorkoutExercise, len(exercises))
	for i, ex := range exercises {
		cloned[i] = ex.Clone()
	}
	return cloned
}

func (h HistoryItem) Volume() float64 {
	return TotalVolume(h.Exercises)
}

// HasExercise reports whether the workout contains an exercise with the given name.
func (h HistoryItem) HasExercise(name string) bool {
	for _, ex := range h.Exercises {
		if SameExercise(ex.ExerciseName, name) {
			return true
		}
	}
	return false
}

func (h HistoryItem) Clone() HistoryItem {
	h.Exercises = CloneExercises(h.Exercises)
	return h
}
