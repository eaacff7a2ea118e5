package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymtracker/internal/gymstats/navigation"
	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/session"
	"github.com/2beens/gymtracker/internal/gymstats/timer"

	log "github.com/sirupsen/logrus"
)

func (c *Console) startWorkout(ctx context.Context, routine routines.Routine) error {
	next, err := navigation.StartWorkout(c.screen, routine)
	if err != nil {
		return err
	}

	s, err := session.New(ctx, session.Params{
		Routine:            routine,
		History:            c.params.History,
		Routines:           c.params.Routines,
		Notifier:           c.params.Notifier,
		Metrics:            c.params.Metrics,
		DefaultRestSeconds: c.params.DefaultRestSeconds,
		NowFunc:            c.params.NowFunc,
		NewTicker:          c.params.NewTicker,
	})
	if err != nil {
		return err
	}
	s.Start(ctx)

	c.session = s
	c.awaitingDecision = false
	if err := c.navigate(next, nil); err != nil {
		return err
	}
	c.showWorkout()
	return nil
}

func (c *Console) workout(ctx context.Context, cmd, args string) error {
	if c.awaitingDecision && cmd != "discard" && cmd != "show" {
		return c.decide(ctx, cmd)
	}

	switch cmd {
	case "show":
		c.showWorkout()
		return nil
	case "weight", "reps":
		fields := strings.Fields(args)
		if len(fields) != 3 {
			return fmt.Errorf("usage: %s EXERCISE SET VALUE", cmd)
		}
		exIdx, setIdx, err := parseIndexes(fields[0], fields[1])
		if err != nil {
			return err
		}
		field := session.FieldWeight
		if cmd == "reps" {
			field = session.FieldReps
		}
		return c.session.UpdateSet(exIdx, setIdx, field, fields[2])
	case "done":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return errors.New("usage: done EXERCISE SET")
		}
		exIdx, setIdx, err := parseIndexes(fields[0], fields[1])
		if err != nil {
			return err
		}
		res, err := c.session.CompleteSet(exIdx, setIdx)
		if err != nil {
			return err
		}
		if res.Completed {
			c.printf("set done, rest %s\n", formatRemaining(res.Rest))
		} else {
			c.printf("set reopened\n")
		}
		c.printStats()
		return nil
	case "add":
		exIdx, err := parseIndex(args)
		if err != nil {
			return err
		}
		set, err := c.session.AddNewSet(exIdx)
		if err != nil {
			return err
		}
		c.printf("added set %d: %s x %s\n", set.SetNumber, set.Weight, set.Reps)
		return nil
	case "resttime":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return errors.New("usage: resttime EXERCISE SECONDS")
		}
		exIdx, err := parseIndex(fields[0])
		if err != nil {
			return err
		}
		seconds, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid seconds: %s", fields[1])
		}
		return c.session.SetRestTime(exIdx, seconds)
	case "rest":
		c.printf("rest: %s\n", formatRemaining(c.session.Rest()))
		return nil
	case "skip":
		c.session.SkipRest()
		c.printf("rest skipped\n")
		return nil
	case "resume":
		c.printf("rest: %s\n", formatRemaining(c.session.Resume()))
		c.printStats()
		return nil
	case "finish":
		return c.finish(ctx)
	case "discard", "back":
		c.discardSession()
		c.printf("workout discarded\n")
		return c.navigate(navigation.WorkoutClosed(c.screen))
	}
	return errUnknownCommand
}

func (c *Console) finish(ctx context.Context) error {
	outcome, err := c.session.Finish(ctx)
	if err != nil {
		return err
	}
	if outcome.NeedsDecision {
		c.awaitingDecision = true
		for _, o := range outcome.Overflow {
			c.printf("%s: %d sets done, routine plans %d\n", o.ExerciseName, o.SessionSets, o.PlannedSets)
		}
		c.printf("update the routine with the new set counts? (yes/no)\n")
		return nil
	}
	return c.closeWorkout()
}

func (c *Console) decide(ctx context.Context, answer string) error {
	var updateRoutine bool
	switch answer {
	case "yes", "y":
		updateRoutine = true
	case "no", "n":
	default:
		return errors.New("answer yes or no")
	}

	if _, err := c.session.Commit(ctx, updateRoutine); err != nil {
		c.printf("workout not saved yet, answer again to retry\n")
		return err
	}
	c.awaitingDecision = false
	return c.closeWorkout()
}

func (c *Console) closeWorkout() error {
	stats := c.session.Stats()
	c.printf("workout saved: %d/%d sets, volume %s\n", stats.CompletedSets, stats.TotalSets, formatNumber(stats.Volume))
	c.session = nil
	return c.navigate(navigation.WorkoutClosed(c.screen))
}

func (c *Console) discardSession() {
	if c.session == nil {
		return
	}
	if err := c.session.Close(); err != nil {
		log.Warnf("console: close session: %s", err)
	}
	c.session = nil
	c.awaitingDecision = false
}

func (c *Console) showWorkout() {
	c.printf("%s\n", c.session.Routine().Name)
	for i, ex := range c.session.Snapshot() {
		c.printf("%d. %s (rest %ds)\n", i+1, ex.ExerciseName, ex.RestTimeSeconds)
		for j, set := range ex.Sets {
			mark := " "
			if set.Completed {
				mark = "x"
			}
			current := ""
			if j == ex.CurrentSet {
				current = " <"
			}
			c.printf("   [%s] %d: %s x %s%s\n", mark, set.SetNumber, set.Weight, set.Reps, current)
		}
	}
	c.printStats()
}

func (c *Console) printStats() {
	stats := c.session.Stats()
	c.printf("%s elapsed, %d/%d sets, volume %s\n",
		time.Duration(stats.DurationSeconds)*time.Second,
		stats.CompletedSets,
		stats.TotalSets,
		formatNumber(stats.Volume),
	)
}

func parseIndexes(ex, set string) (int, int, error) {
	exIdx, err := parseIndex(ex)
	if err != nil {
		return 0, 0, err
	}
	setIdx, err := parseIndex(set)
	if err != nil {
		return 0, 0, err
	}
	return exIdx, setIdx, nil
}

// parseIndex turns a 1-based number into an index. Range checks are left to the session.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return n - 1, nil
}

func formatRemaining(status timer.Status) string {
	if !status.Running {
		return "idle"
	}
	return status.Remaining.Round(time.Second).String()
}
