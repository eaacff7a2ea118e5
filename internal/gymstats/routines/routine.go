package routines

import (
	"strings"
	"time"
)

const (
	DefaultSets = 3
	DefaultReps = 10

	summaryMaxNames = 3
)

// Exercise is a routine template entry. Sets and Reps are optional planned counts.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets *int   `json:"sets,omitempty"`
	Reps *int   `json:"reps,omitempty"`
}

func (e Exercise) PlannedSets() int {
	if e.Sets == nil {
		return DefaultSets
	}
	return *e.Sets
}

func (e Exercise) PlannedReps() int {
	if e.Reps == nil {
		return DefaultReps
	}
	return *e.Reps
}

type Routine struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	ExercisesSummary string     `json:"exercisesSummary"`
	Exercises        []Exercise `json:"exercises"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Draft is the user-edited part of a routine, as submitted by the routine form.
type Draft struct {
	Name      string
	Exercises []Exercise
}

// Summary is the display string stored in Routine.ExercisesSummary:
// the first three exercise names, with "..." appended when there are more.
func Summary(exercises []Exercise) string {
	names := make([]string, 0, summaryMaxNames)
	for i, ex := range exercises {
		if i == summaryMaxNames {
			break
		}
		names = append(names, ex.Name)
	}

	summary := strings.Join(names, ", ")
	if len(exercises) > summaryMaxNames {
		summary += "..."
	}
	return summary
}

// IntPtr is a small helper for building exercises with planned counts.
func IntPtr(i int) *int {
	return &i
}

func cloneExercises(exercises []Exercise) []Exercise {
	cloned := make([]Exercise, len(exercises))
	for i, ex := range exercises {
		cloned[i] = ex
		if ex.Sets != nil {
			cloned[i].Sets = IntPtr(*ex.Sets)
		}
		if ex.Reps != nil {
			cloned[i].Reps = IntPtr(*ex.Reps)
		}
	}
	return cloned
}

// Clone returns a deep copy, safe to mutate without touching the original.
func (r Routine) Clone() Routine {
	r.Exercises = cloneExercises(r.Exercises)
	return r
}
