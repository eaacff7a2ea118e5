package workouts

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/2beens/gymtracker/internal/apperrors"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=workouts_test

type historyLister interface {
	List(ctx context.Context) ([]HistoryItem, error)
}

// Filter narrows the history before any statistic is computed.
// From/To bound the workout start time (inclusive). With ExerciseName set,
// only workouts containing that exercise are kept and every set/volume figure
// is restricted to it.
type Filter struct {
	From         *time.Time
	To           *time.Time
	RoutineID    string
	ExerciseName string
}

type Bucket string

const (
	BucketDay  Bucket = "day"
	BucketWeek Bucket = "week"
)

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// slopes within this fraction of the mean bucket volume count as flat
const flatTrendRatio = 0.01

type Summary struct {
	Workouts           int        `json:"workouts"`
	CompletedSets      int        `json:"completedSets"`
	TotalSets          int        `json:"totalSets"`
	TotalVolume        float64    `json:"totalVolume"`
	AvgVolume          float64    `json:"avgVolume"`
	AvgDurationMinutes float64    `json:"avgDurationMinutes"`
	FirstWorkout       *time.Time `json:"firstWorkout,omitempty"`
	LastWorkout        *time.Time `json:"lastWorkout,omitempty"`
}

type VolumePoint struct {
	Start    time.Time `json:"start"`
	Volume   float64   `json:"volume"`
	Workouts int       `json:"workouts"`
}

type VolumeTrend struct {
	Bucket    Bucket         `json:"bucket"`
	Points    []VolumePoint  `json:"points"`
	Slope     float64        `json:"slope"`
	Direction TrendDirection `json:"direction"`
}

type Frequency struct {
	TotalWorkouts int            `json:"totalWorkouts"`
	PerWeekday    map[string]int `json:"perWeekday"`
	Weeks         int            `json:"weeks"`
	PerWeekAvg    float64        `json:"perWeekAvg"`
}

type Streaks struct {
	Current        int        `json:"current"`
	Longest        int        `json:"longest"`
	LastWorkoutDay *time.Time `json:"lastWorkoutDay,omitempty"`
}

type ProgressPoint struct {
	WorkoutID     string    `json:"workoutId"`
	Date          time.Time `json:"date"`
	MaxWeight     float64   `json:"maxWeight"`
	Volume        float64   `json:"volume"`
	CompletedSets int       `json:"completedSets"`
	BestOneRepMax float64   `json:"bestOneRepMax"`
}

type PersonalRecord struct {
	WorkoutID string    `json:"workoutId"`
	Date      time.Time `json:"date"`
	Weight    float64   `json:"weight"`
	Reps      float64   `json:"reps"`
	OneRepMax float64   `json:"oneRepMax"`
}

type ExerciseProgress struct {
	ExerciseName   string          `json:"exerciseName"`
	Points         []ProgressPoint `json:"points"`
	PersonalRecord *PersonalRecord `json:"personalRecord,omitempty"`
}

// Analyzer derives statistics from a read-only snapshot of the history.
type Analyzer struct {
	history historyLister

	NowFunc  func() time.Time
	Location *time.Location
}

func NewAnalyzer(history historyLister) *Analyzer {
	return &Analyzer{
		history:  history,
		NowFunc:  time.Now,
		Location: time.Local,
	}
}

// History returns the filtered workouts, most recent first.
func (a *Analyzer) History(ctx context.Context, f Filter) (_ []HistoryItem, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return a.filtered(ctx, f)
}

func (a *Analyzer) Summary(ctx context.Context, f Filter) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.summary")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	items, err := a.filtered(ctx, f)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("workouts", len(items)))

	summary := &Summary{Workouts: len(items)}
	if len(items) == 0 {
		return summary, nil
	}

	var totalDuration int
	for _, item := range items {
		summary.CompletedSets += CountCompleted(item.Exercises)
		summary.TotalSets += CountTotal(item.Exercises)
		summary.TotalVolume += item.Volume()
		totalDuration += item.DurationMinutes
	}
	summary.AvgVolume = summary.TotalVolume / float64(len(items))
	summary.AvgDurationMinutes = float64(totalDuration) / float64(len(items))

	// items are most recent first
	first := items[len(items)-1].StartTime
	last := items[0].StartTime
	summary.FirstWorkout = &first
	summary.LastWorkout = &last

	return summary, nil
}

func (a *Analyzer) VolumeTrend(ctx context.Context, f Filter, bucket Bucket) (_ *VolumeTrend, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.volume-trend")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("bucket", string(bucket)))

	if bucket != BucketDay && bucket != BucketWeek {
		return nil, apperrors.NewValidationError("bucket", "must be one of: day, week")
	}

	items, err := a.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	byStart := make(map[time.Time]*VolumePoint)
	for _, item := range items {
		start := a.day(item.StartTime)
		if bucket == BucketWeek {
			start = weekStart(start)
		}
		point, ok := byStart[start]
		if !ok {
			point = &VolumePoint{Start: start}
			byStart[start] = point
		}
		point.Volume += item.Volume()
		point.Workouts++
	}

	trend := &VolumeTrend{
		Bucket: bucket,
		Points: make([]VolumePoint, 0, len(byStart)),
	}
	for _, point := range byStart {
		trend.Points = append(trend.Points, *point)
	}
	sort.Slice(trend.Points, func(i, j int) bool {
		return trend.Points[i].Start.Before(trend.Points[j].Start)
	})

	trend.Slope, trend.Direction = volumeSlope(trend.Points)
	return trend, nil
}

func (a *Analyzer) Frequency(ctx context.Context, f Filter) (_ *Frequency, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.frequency")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	items, err := a.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	freq := &Frequency{
		TotalWorkouts: len(items),
		PerWeekday:    make(map[string]int, 7),
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		freq.PerWeekday[d.String()] = 0
	}
	if len(items) == 0 {
		return freq, nil
	}

	for _, item := range items {
		freq.PerWeekday[item.StartTime.In(a.Location).Weekday().String()]++
	}

	firstWeek := weekStart(a.day(items[len(items)-1].StartTime))
	lastWeek := weekStart(a.day(items[0].StartTime))
	freq.Weeks = daysBetween(firstWeek, lastWeek)/7 + 1
	freq.PerWeekAvg = float64(len(items)) / float64(freq.Weeks)

	return freq, nil
}

// Streaks counts runs of consecutive calendar days with at least one workout.
// The current streak is 0 unless the last workout day is today or yesterday.
func (a *Analyzer) Streaks(ctx context.Context, f Filter) (_ *Streaks, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.streaks")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	items, err := a.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	streaks := &Streaks{}
	if len(items) == 0 {
		return streaks, nil
	}

	daySet := make(map[time.Time]struct{})
	for _, item := range items {
		daySet[a.day(item.StartTime)] = struct{}{}
	}
	days := make([]time.Time, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})

	run := 1
	streaks.Longest = 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > streaks.Longest {
			streaks.Longest = run
		}
	}

	lastDay := days[len(days)-1]
	streaks.LastWorkoutDay = &lastDay
	if daysBetween(lastDay, a.day(a.NowFunc())) <= 1 {
		// run still holds the length of the run ending at lastDay
		streaks.Current = run
	}

	return streaks, nil
}

// ExerciseProgress tracks one exercise across workouts, oldest first.
// One-rep max is estimated with the Epley formula.
func (a *Analyzer) ExerciseProgress(ctx context.Context, name string, f Filter) (_ *ExerciseProgress, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.history.exercise-progress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", name))

	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewValidationError("exerciseName", "exercise name is required")
	}
	f.ExerciseName = name

	items, err := a.filtered(ctx, f)
	if err != nil {
		return nil, err
	}

	progress := &ExerciseProgress{
		ExerciseName: strings.TrimSpace(name),
		Points:       make([]ProgressPoint, 0, len(items)),
	}
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		point := ProgressPoint{
			WorkoutID: item.ID,
			Date:      item.StartTime,
		}
		for _, ex := range item.Exercises {
			point.Volume += ex.Volume()
			point.CompletedSets += ex.CompletedSets()
			for _, set := range ex.Sets {
				weight, reps := ParseNumber(set.Weight), ParseNumber(set.Reps)
				if !set.Completed || weight <= 0 || reps <= 0 {
					continue
				}
				point.MaxWeight = math.Max(point.MaxWeight, weight)
				oneRepMax := EstimateOneRepMax(weight, reps)
				point.BestOneRepMax = math.Max(point.BestOneRepMax, oneRepMax)
				if progress.PersonalRecord == nil || oneRepMax > progress.PersonalRecord.OneRepMax {
					progress.PersonalRecord = &PersonalRecord{
						WorkoutID: item.ID,
						Date:      item.StartTime,
						Weight:    weight,
						Reps:      reps,
						OneRepMax: oneRepMax,
					}
				}
			}
		}
		progress.Points = append(progress.Points, point)
	}

	return progress, nil
}

// EstimateOneRepMax uses the Epley formula; a single rep is its own max.
func EstimateOneRepMax(weight, reps float64) float64 {
	if reps <= 1 {
		return weight
	}
	return weight * (1 + reps/30)
}

// filtered computes over an empty log when the history cannot be read.
func (a *Analyzer) filtered(ctx context.Context, f Filter) ([]HistoryItem, error) {
	items, err := a.history.List(ctx)
	if err != nil {
		log.Errorf("analyzer: read history, using empty log: %s", err)
		items = []HistoryItem{}
	}

	kept := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		if f.From != nil && item.StartTime.Before(*f.From) {
			continue
		}
		if f.To != nil && item.StartTime.After(*f.To) {
			continue
		}
		if f.RoutineID != "" && item.RoutineID != f.RoutineID {
			continue
		}
		if f.ExerciseName != "" {
			if !item.HasExercise(f.ExerciseName) {
				continue
			}
			item = onlyExercise(item, f.ExerciseName)
		}
		kept = append(kept, item)
	}
	return kept, nil
}

func onlyExercise(item HistoryItem, name string) HistoryItem {
	exercises := make([]WorkoutExercise, 0, 1)
	for _, ex := range item.Exercises {
		if SameExercise(ex.ExerciseName, name) {
			exercises = append(exercises, ex.Clone())
		}
	}
	item.Exercises = exercises
	item.CompletedSets = CountCompleted(exercises)
	item.TotalSets = CountTotal(exercises)
	return item
}

func (a *Analyzer) day(t time.Time) time.Time {
	t = t.In(a.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.Location)
}

// weekStart returns the Monday of the ISO week containing day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func daysBetween(from, to time.Time) int {
	// calendar dates; rounding absorbs DST shifts
	return int(math.Round(to.Sub(from).Hours() / 24))
}

// volumeSlope fits volume = a + slope*i over the bucket index with least squares.
func volumeSlope(points []VolumePoint) (float64, TrendDirection) {
	n := float64(len(points))
	if len(points) < 2 {
		return 0, TrendFlat
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.Volume
		sumXY += x * p.Volume
		sumXX += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)

	mean := sumY / n
	switch {
	case mean == 0 || math.Abs(slope) <= flatTrendRatio*mean:
		return slope, TrendFlat
	case slope > 0:
		return slope, TrendUp
	default:
		return slope, TrendDown
	}
}
