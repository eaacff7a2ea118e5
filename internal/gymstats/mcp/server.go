package mcp

import (
	"github.com/2beens/gymtracker/internal/gymstats/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the read-only MCP server over routines and workout history.
// Served over stdio by cmd/gymtracker_mcp.
func NewServer(routinesRepo RoutinesRepo, analyzer *workouts.Analyzer) *mcp.Server {
	svc := NewContextService(routinesRepo, analyzer)
	h := NewHandler(svc)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gymtracker",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_gymtracker_context",
		Description: "Describes how routines and workouts are stored (keys, JSON fields) and how many of each exist. Use first to understand the data the other tools return.",
	}, h.GetGymtrackerContextTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_routines",
		Description: "Returns all workout routines (templates) with their exercises and planned sets/reps.",
	}, h.ListRoutinesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_history",
		Description: "Returns finished workouts, most recent first, with every set (weight, reps, completed). Optional: from_date, to_date (YYYY-MM-DD), routine_id, exercise_name, limit.",
	}, h.GetWorkoutHistoryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_summary",
		Description: "Returns totals for the filtered workouts: count, completed/total sets, total and average volume, average duration. Optional: from_date, to_date, routine_id, exercise_name.",
	}, h.GetWorkoutSummaryTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_volume_trend",
		Description: "Returns volume (weight x reps of completed sets) per day or week, oldest first, with the fitted slope and a direction (up, down, flat). Optional: bucket (day|week), from_date, to_date, routine_id, exercise_name.",
	}, h.GetVolumeTrendTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_workout_frequency",
		Description: "Returns workouts per weekday and the average number of workouts per week. Optional: from_date, to_date, routine_id, exercise_name.",
	}, h.GetWorkoutFrequencyTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_streaks",
		Description: "Returns the current and the longest run of consecutive days with a workout.",
	}, h.GetStreaksTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_exercise_progress",
		Description: "Returns per-workout max weight, volume and estimated one-rep max (Epley) for one exercise, oldest first, plus the personal record. Arg: exercise_name; optional: from_date, to_date, routine_id.",
	}, h.GetExerciseProgressTool())

	return s
}
