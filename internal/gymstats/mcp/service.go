package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/2beens/gymtracker/internal/gymstats/routines"
	"github.com/2beens/gymtracker/internal/gymstats/workouts"
)

// RoutinesRepo lists the stored routines (for dependency injection and testing).
type RoutinesRepo interface {
	List(ctx context.Context) ([]routines.Routine, error)
}

// historyAnalyzer provides the filtered history and its statistics.
type historyAnalyzer interface {
	History(ctx context.Context, f workouts.Filter) ([]workouts.HistoryItem, error)
	Summary(ctx context.Context, f workouts.Filter) (*workouts.Summary, error)
	VolumeTrend(ctx context.Context, f workouts.Filter, bucket workouts.Bucket) (*workouts.VolumeTrend, error)
	Frequency(ctx context.Context, f workouts.Filter) (*workouts.Frequency, error)
	Streaks(ctx context.Context, f workouts.Filter) (*workouts.Streaks, error)
	ExerciseProgress(ctx context.Context, name string, f workouts.Filter) (*workouts.ExerciseProgress, error)
}

// contextService provides the tracker data exposed over MCP. Used by Handler for testability.
type contextService interface {
	GetContext(ctx context.Context) (string, error)
	ListRoutines(ctx context.Context) ([]routines.Routine, error)
	GetHistory(ctx context.Context, f workouts.Filter, limit int) ([]workouts.HistoryItem, error)
	GetSummary(ctx context.Context, f workouts.Filter) (*workouts.Summary, error)
	GetVolumeTrend(ctx context.Context, f workouts.Filter, bucket workouts.Bucket) (*workouts.VolumeTrend, error)
	GetFrequency(ctx context.Context, f workouts.Filter) (*workouts.Frequency, error)
	GetStreaks(ctx context.Context, f workouts.Filter) (*workouts.Streaks, error)
	GetExerciseProgress(ctx context.Context, name string, f workouts.Filter) (*workouts.ExerciseProgress, error)
}

// ContextService is read-only: it never writes routines or history.
type ContextService struct {
	routines RoutinesRepo
	analyzer historyAnalyzer
}

func NewContextService(routinesRepo RoutinesRepo, analyzer historyAnalyzer) *ContextService {
	return &ContextService{
		routines: routinesRepo,
		analyzer: analyzer,
	}
}

// GetContext describes the persisted layout and how much data is stored.
func (s *ContextService) GetContext(ctx context.Context) (string, error) {
	list, err := s.routines.List(ctx)
	if err != nil {
		return "", err
	}
	history, err := s.analyzer.History(ctx, workouts.Filter{})
	if err != nil {
		return "", err
	}
	return formatStorageContext(len(list), len(history)), nil
}

func formatStorageContext(routinesCount, workoutsCount int) string {
	var b strings.Builder
	b.WriteString("# Gymtracker storage\n\n")
	b.WriteString("Key-value store, two keys, each holding one JSON array.\n\n")
	b.WriteString(fmt.Sprintf("## %s (%d routines)\n\n", routines.StorageKey, routinesCount))
	b.WriteString("Routine: id, name, exercisesSummary (first 3 exercise names), exercises[] {id, name, sets?, reps?}, createdAt.\n")
	b.WriteString(fmt.Sprintf("Missing sets/reps mean %d sets of %d reps.\n\n", routines.DefaultSets, routines.DefaultReps))
	b.WriteString(fmt.Sprintf("## %s (%d workouts, most recent first, max %d)\n\n", workouts.StorageKey, workoutsCount, workouts.MaxHistoryItems))
	b.WriteString("Workout: id, routineId, routineName, exercises[] {exerciseId, exerciseName, sets[] {setNumber, weight, reps, completed}, currentSet, restTimeSeconds}, ")
	b.WriteString("startTime, endTime, durationMinutes, completedSets, totalSets.\n")
	b.WriteString("Weight and reps are strings; volume counts completed sets only, non-numeric values count as 0.\n")
	return b.String()
}

func (s *ContextService) ListRoutines(ctx context.Context) ([]routines.Routine, error) {
	return s.routines.List(ctx)
}

// GetHistory returns filtered workouts, most recent first; limit <= 0 means all.
func (s *ContextService) GetHistory(ctx context.Context, f workouts.Filter, limit int) ([]workouts.HistoryItem, error) {
	history, err := s.analyzer.History(ctx, f)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (s *ContextService) GetSummary(ctx context.Context, f workouts.Filter) (*workouts.Summary, error) {
	return s.analyzer.Summary(ctx, f)
}

func (s *ContextService) GetVolumeTrend(ctx context.Context, f workouts.Filter, bucket workouts.Bucket) (*workouts.VolumeTrend, error) {
	return s.analyzer.VolumeTrend(ctx, f, bucket)
}

func (s *ContextService) GetFrequency(ctx context.Context, f workouts.Filter) (*workouts.Frequency, error) {
	return s.analyzer.Frequency(ctx, f)
}

func (s *ContextService) GetStreaks(ctx context.Context, f workouts.Filter) (*workouts.Streaks, error) {
	return s.analyzer.Streaks(ctx, f)
}

func (s *ContextService) GetExerciseProgress(ctx context.Context, name string, f workouts.Filter) (*workouts.ExerciseProgress, error) {
	return s.analyzer.ExerciseProgress(ctx, name, f)
}
