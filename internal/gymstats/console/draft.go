package console

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/2beens/gymtracker/internal/gymstats/routines"
)

// trailing "4x8" or "4X8" after an exercise name
var setsRepsRe = regexp.MustCompile(`^(.*?)\s+(\d+)[xX](\d+)$`)

// ParseDraft reads "Push Day: Bench Press 4x8, Dips, Overhead Press 3x10".
// Exercises without a SETSxREPS suffix keep the routine defaults. Names are
// not validated here; the repository rejects empty ones.
func ParseDraft(s string) (routines.Draft, error) {
	name, list, ok := strings.Cut(s, ":")
	if !ok {
		return routines.Draft{}, errors.New("usage: save NAME: EXERCISE [SETSxREPS], ...")
	}

	draft := routines.Draft{Name: strings.TrimSpace(name)}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ex := routines.Exercise{Name: part}
		if m := setsRepsRe.FindStringSubmatch(part); m != nil {
			sets, setsErr := strconv.Atoi(m[2])
			reps, repsErr := strconv.Atoi(m[3])
			if setsErr == nil && repsErr == nil {
				ex.Name = strings.TrimSpace(m[1])
				ex.Sets = routines.IntPtr(sets)
				ex.Reps = routines.IntPtr(reps)
			}
		}
		draft.Exercises = append(draft.Exercises, ex)
	}
	return draft, nil
}
