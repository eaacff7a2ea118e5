// Package navigation models which screen is current as a closed set of
// variants with one transition function per external event. It holds no
// rendering concerns.
package navigation

import (
	"errors"
	"fmt"

	"github.com/2beens/gymtracker/internal/gymstats/routines"
)

var ErrInvalidTransition = errors.New("invalid screen transition")

type Kind string

const (
	KindHome    Kind = "home"
	KindForm    Kind = "form"
	KindWorkout Kind = "workout"
	KindHistory Kind = "history"
)

// Screen is one of Home, Form, Workout or History.
type Screen interface {
	Kind() Kind
	isScreen()
}

type Home struct{}

// Form is the routine form; Editing is nil for a new routine.
type Form struct {
	Editing *routines.Routine
}

type Workout struct {
	Routine routines.Routine
}

type History struct{}

func (Home) Kind() Kind    { return KindHome }
func (Form) Kind() Kind    { return KindForm }
func (Workout) Kind() Kind { return KindWorkout }
func (History) Kind() Kind { return KindHistory }

func (Home) isScreen()    {}
func (Form) isScreen()    {}
func (Workout) isScreen() {}
func (History) isScreen() {}

// Back leaves any screen for Home. Home has nowhere to go back to.
func Back(current Screen) (Screen, error) {
	if _, ok := current.(Home); ok {
		return nil, invalid(current, "back")
	}
	return Home{}, nil
}

func OpenNewRoutine(current Screen) (Screen, error) {
	if _, ok := current.(Home); !ok {
		return nil, invalid(current, "open new routine")
	}
	return Form{}, nil
}

func OpenEditRoutine(current Screen, routine routines.Routine) (Screen, error) {
	if _, ok := current.(Home); !ok {
		return nil, invalid(current, "edit routine")
	}
	editing := routine.Clone()
	return Form{Editing: &editing}, nil
}

func StartWorkout(current Screen, routine routines.Routine) (Screen, error) {
	if _, ok := current.(Home); !ok {
		return nil, invalid(current, "start workout")
	}
	if len(routine.Exercises) == 0 {
		return nil, fmt.Errorf("%w: routine [%s] has no exercises", ErrInvalidTransition, routine.ID)
	}
	return Workout{Routine: routine.Clone()}, nil
}

func OpenHistory(current Screen) (Screen, error) {
	if _, ok := current.(Home); !ok {
		return nil, invalid(current, "open history")
	}
	return History{}, nil
}

// RoutineSaved returns from the form once the routine was persisted.
func RoutineSaved(current Screen) (Screen, error) {
	if _, ok := current.(Form); !ok {
		return nil, invalid(current, "routine saved")
	}
	return Home{}, nil
}

// WorkoutClosed returns from a workout, whether it was saved or discarded.
func WorkoutClosed(current Screen) (Screen, error) {
	if _, ok := current.(Workout); !ok {
		return nil, invalid(current, "workout closed")
	}
	return Home{}, nil
}

func invalid(current Screen, event string) error {
	kind := Kind("none")
	if current != nil {
		kind = current.Kind()
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, kind)
}
