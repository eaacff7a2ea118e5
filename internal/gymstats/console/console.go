// Package console is a line-oriented front end for the tracker: it keeps the
// current screen, maps typed commands to repository and session calls and
// prints plain text results. It reads from any io.Reader so it can be scripted.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymtracker/internal/gymstats/navigation"
	"github.com/2beens/gymtracker/internal/gymstats/notify"
	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/session"
	"github.com/2beens/gymtracker/internal/gymstats/timer"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

var errUnknownCommand = errors.New("unknown command, type help")

type routineStore interface {
	List(ctx context.Context) ([]routines.Routine, error)
	Get(ctx context.Context, id string) (*routines.Routine, error)
	Save(ctx context.Context, draft routines.Draft, existingID string) (*routines.Routine, error)
	Delete(ctx context.Context, id string) error
}

type historyStore interface {
	List(ctx context.Context) ([]workouts.HistoryItem, error)
	Append(ctx context.Context, item workouts.HistoryItem) error
}

type summarizer interface {
	Summary(ctx context.Context, f workouts.Filter) (*workouts.Summary, error)
	Streaks(ctx context.Context, f workouts.Filter) (*workouts.Streaks, error)
}

type Params struct {
	Routines routineStore
	History  historyStore
	Analyzer summarizer
	Notifier notify.Notifier
	Metrics  *metrics.Manager

	DefaultRestSeconds int

	NowFunc   func() time.Time
	NewTicker timer.NewTickerFunc
}

type Console struct {
	params Params
	out    io.Writer

	screen navigation.Screen
	// routines as last listed, commands address them by 1-based position
	listed  []routines.Routine
	session *session.Session
	// set while Finish waits for the routine update answer
	awaitingDecision bool
}

func New(params Params, out io.Writer) *Console {
	return &Console{
		params: params,
		out:    out,
		screen: navigation.Home{},
	}
}

func (c *Console) Screen() navigation.Screen {
	return c.screen
}

// Run executes one command per input line until quit or EOF. Command errors
// are printed and do not stop the loop. An open workout is discarded on exit.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	defer c.discardSession()

	c.printf("gymtracker, type help for commands\n")
	scanner := bufio.NewScanner(in)
	for {
		c.printf("%s> ", c.screen.Kind())
		if !scanner.Scan() {
			c.printf("\n")
			return scanner.Err()
		}
		quit, err := c.Execute(ctx, scanner.Text())
		if err != nil {
			c.printf("error: %s\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Execute runs a single command line against the current screen.
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	cmd, args := splitCommand(line)
	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		c.printHelp()
		return false, nil
	}

	switch c.screen.(type) {
	case navigation.Home:
		err = c.home(ctx, cmd, args)
	case navigation.Form:
		err = c.form(ctx, cmd, args)
	case navigation.Workout:
		err = c.workout(ctx, cmd, args)
	case navigation.History:
		err = c.history(ctx, cmd, args)
	default:
		err = errUnknownCommand
	}
	return false, err
}

func (c *Console) home(ctx context.Context, cmd, args string) error {
	switch cmd {
	case "list":
		return c.listRoutines(ctx)
	case "new":
		return c.navigate(navigation.OpenNewRoutine(c.screen))
	case "edit":
		routine, err := c.pickRoutine(args)
		if err != nil {
			return err
		}
		return c.navigate(navigation.OpenEditRoutine(c.screen, routine))
	case "delete":
		routine, err := c.pickRoutine(args)
		if err != nil {
			return err
		}
		if err := c.params.Routines.Delete(ctx, routine.ID); err != nil {
			return err
		}
		c.printf("deleted %s\n", routine.Name)
		return c.listRoutines(ctx)
	case "start":
		routine, err := c.pickRoutine(args)
		if err != nil {
			return err
		}
		return c.startWorkout(ctx, routine)
	case "history":
		if err := c.navigate(navigation.OpenHistory(c.screen)); err != nil {
			return err
		}
		return c.listHistory(ctx, 10)
	}
	return errUnknownCommand
}

func (c *Console) form(ctx context.Context, cmd, args string) error {
	switch cmd {
	case "back":
		return c.navigate(navigation.Back(c.screen))
	case "save":
		draft, err := ParseDraft(args)
		if err != nil {
			return err
		}
		existingID := ""
		if editing := c.screen.(navigation.Form).Editing; editing != nil {
			existingID = editing.ID
		}
		routine, err := c.params.Routines.Save(ctx, draft, existingID)
		if err != nil {
			return err
		}
		c.printf("saved %s: %s\n", routine.Name, routine.ExercisesSummary)
		if err := c.navigate(navigation.RoutineSaved(c.screen)); err != nil {
			return err
		}
		return c.listRoutines(ctx)
	}
	return errUnknownCommand
}

func (c *Console) history(ctx context.Context, cmd, args string) error {
	switch cmd {
	case "back":
		return c.navigate(navigation.Back(c.screen))
	case "list":
		limit := 10
		if args != "" {
			n, err := strconv.Atoi(args)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid limit: %s", args)
			}
			limit = n
		}
		return c.listHistory(ctx, limit)
	case "summary":
		return c.printSummary(ctx)
	}
	return errUnknownCommand
}

func (c *Console) navigate(next navigation.Screen, err error) error {
	if err != nil {
		return err
	}
	log.Debugf("console: %s -> %s", c.screen.Kind(), next.Kind())
	c.screen = next
	return nil
}

func (c *Console) listRoutines(ctx context.Context) error {
	list, err := c.params.Routines.List(ctx)
	if err != nil {
		log.Errorf("console: list routines: %s", err)
		c.printf("routines could not be read\n")
	}
	c.listed = list
	if len(list) == 0 {
		c.printf("no routines yet, use new\n")
		return nil
	}
	for i, r := range list {
		c.printf("%d. %s (%s)\n", i+1, r.Name, r.ExercisesSummary)
	}
	return nil
}

func (c *Console) pickRoutine(arg string) (routines.Routine, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(c.listed) {
		return routines.Routine{}, fmt.Errorf("no routine number %q, use list", arg)
	}
	return c.listed[n-1], nil
}

func (c *Console) listHistory(ctx context.Context, limit int) error {
	items, err := c.params.History.List(ctx)
	if err != nil {
		log.Errorf("console: list history: %s", err)
		c.printf("history could not be read\n")
	}
	if len(items) == 0 {
		c.printf("no workouts yet\n")
		return nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	for _, item := range items {
		c.printf("%s  %-20s %3d min  %d/%d sets  volume %s\n",
			item.StartTime.Format("2006-01-02 15:04"),
			item.RoutineName,
			item.DurationMinutes,
			item.CompletedSets,
			item.TotalSets,
			formatNumber(item.Volume()),
		)
	}
	return nil
}

func (c *Console) printSummary(ctx context.Context) error {
	summary, err := c.params.Analyzer.Summary(ctx, workouts.Filter{})
	if err != nil {
		return err
	}
	streaks, err := c.params.Analyzer.Streaks(ctx, workouts.Filter{})
	if err != nil {
		return err
	}
	c.printf("workouts: %d\n", summary.Workouts)
	c.printf("sets: %d/%d\n", summary.CompletedSets, summary.TotalSets)
	c.printf("volume: %s (avg %s)\n", formatNumber(summary.TotalVolume), formatNumber(summary.AvgVolume))
	c.printf("avg duration: %s min\n", formatNumber(summary.AvgDurationMinutes))
	c.printf("streak: %d days (longest %d)\n", streaks.Current, streaks.Longest)
	return nil
}

func (c *Console) printHelp() {
	switch c.screen.(type) {
	case navigation.Home:
		c.printf("list | new | edit N | delete N | start N | history | quit\n")
	case navigation.Form:
		c.printf("save NAME: EXERCISE [SETSxREPS], ... | back\n")
		c.printf("example: save Push Day: Bench Press 4x8, Dips, Overhead Press 3x10\n")
	case navigation.Workout:
		c.printf("show | weight E S VALUE | reps E S VALUE | done E S | add E | resttime E SECONDS\n")
		c.printf("rest | skip | resume | finish | discard\n")
		c.printf("E and S are 1-based exercise and set numbers\n")
	case navigation.History:
		c.printf("list [N] | summary | back\n")
	}
}

func (c *Console) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		log.Debugf("console: write output: %s", err)
	}
}

func splitCommand(line string) (cmd, args string) {
	line = strings.TrimSpace(line)
	cmd, args, _ = strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
