package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/gymtracker/internal/gymstats/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

// FilterInput is the common filter of the history tools.
type FilterInput struct {
	FromDate     string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate       string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	RoutineID    string `json:"routine_id,omitempty" jsonschema:"Only workouts of this routine id"`
	ExerciseName string `json:"exercise_name,omitempty" jsonschema:"Only workouts containing this exercise (case-insensitive); sets and volume are restricted to it"`
}

type HistoryInput struct {
	FromDate     string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate       string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	RoutineID    string `json:"routine_id,omitempty" jsonschema:"Only workouts of this routine id"`
	ExerciseName string `json:"exercise_name,omitempty" jsonschema:"Only workouts containing this exercise (case-insensitive)"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max number of workouts to return, most recent first (default all)"`
}

type VolumeTrendInput struct {
	FromDate     string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate       string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	RoutineID    string `json:"routine_id,omitempty" jsonschema:"Only workouts of this routine id"`
	ExerciseName string `json:"exercise_name,omitempty" jsonschema:"Only this exercise's volume (case-insensitive)"`
	Bucket       string `json:"bucket,omitempty" jsonschema:"Bucket size: day or week (default week)"`
}

type ExerciseProgressInput struct {
	ExerciseName string `json:"exercise_name" jsonschema:"Exercise name (case-insensitive), e.g. Bench Press"`
	FromDate     string `json:"from_date,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	ToDate       string `json:"to_date,omitempty" jsonschema:"End date (YYYY-MM-DD), inclusive"`
	RoutineID    string `json:"routine_id,omitempty" jsonschema:"Only workouts of this routine id"`
}

// GetGymtrackerContextTool returns the MCP tool handler for get_gymtracker_context.
func (h *Handler) GetGymtrackerContextTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		text, err := h.service.GetContext(ctx)
		if err != nil {
			return errorResult("Error reading storage: " + err.Error()), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

// ListRoutinesTool returns the MCP tool handler for list_routines.
func (h *Handler) ListRoutinesTool() func(context.Context, *mcp.CallToolRequest, any) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ any) (*mcp.CallToolResult, any, error) {
		list, err := h.service.ListRoutines(ctx)
		if err != nil {
			return errorResult("Error listing routines: " + err.Error()), nil, nil
		}
		return jsonResult(list), nil, nil
	}
}

// GetWorkoutHistoryTool returns the MCP tool handler for get_workout_history.
func (h *Handler) GetWorkoutHistoryTool() func(context.Context, *mcp.CallToolRequest, HistoryInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, any, error) {
		f, errRes := parseFilter(FilterInput{FromDate: in.FromDate, ToDate: in.ToDate, RoutineID: in.RoutineID, ExerciseName: in.ExerciseName})
		if errRes != nil {
			return errRes, nil, nil
		}
		history, err := h.service.GetHistory(ctx, f, in.Limit)
		if err != nil {
			return errorResult("Error reading history: " + err.Error()), nil, nil
		}
		return jsonResult(history), nil, nil
	}
}

// GetWorkoutSummaryTool returns the MCP tool handler for get_workout_summary.
func (h *Handler) GetWorkoutSummaryTool() func(context.Context, *mcp.CallToolRequest, FilterInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in FilterInput) (*mcp.CallToolResult, any, error) {
		f, errRes := parseFilter(in)
		if errRes != nil {
			return errRes, nil, nil
		}
		summary, err := h.service.GetSummary(ctx, f)
		if err != nil {
			return errorResult("Error computing summary: " + err.Error()), nil, nil
		}
		return jsonResult(summary), nil, nil
	}
}

// GetVolumeTrendTool returns the MCP tool handler for get_volume_trend.
func (h *Handler) GetVolumeTrendTool() func(context.Context, *mcp.CallToolRequest, VolumeTrendInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in VolumeTrendInput) (*mcp.CallToolResult, any, error) {
		f, errRes := parseFilter(FilterInput{FromDate: in.FromDate, ToDate: in.ToDate, RoutineID: in.RoutineID, ExerciseName: in.ExerciseName})
		if errRes != nil {
			return errRes, nil, nil
		}
		bucket := workouts.Bucket(in.Bucket)
		if bucket == "" {
			bucket = workouts.BucketWeek
		}
		trend, err := h.service.GetVolumeTrend(ctx, f, bucket)
		if err != nil {
			return errorResult("Error computing volume trend: " + err.Error()), nil, nil
		}
		return jsonResult(trend), nil, nil
	}
}

// GetWorkoutFrequencyTool returns the MCP tool handler for get_workout_frequency.
func (h *Handler) GetWorkoutFrequencyTool() func(context.Context, *mcp.CallToolRequest, FilterInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in FilterInput) (*mcp.CallToolResult, any, error) {
		f, errRes := parseFilter(in)
		if errRes != nil {
			return errRes, nil, nil
		}
		freq, err := h.service.GetFrequency(ctx, f)
		if err != nil {
			return errorResult("Error computing frequency: " + err.Error()), nil, nil
		}
		return jsonResult(freq), nil, nil
	}
}

// GetStreaksTool returns the MCP tool handler for get_streaks.
func (h *Handler) GetStreaksTool() func(context.Context, *mcp.CallToolRequest, FilterInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in FilterInput) (*mcp.CallToolResult, any, error) {
		f, errRes := parseFilter(in)
		if errRes != nil {
			return errRes, nil, nil
		}
		streaks, err := h.service.GetStreaks(ctx, f)
		if err != nil {
			return errorResult("Error computing streaks: " + err.Error()), nil, nil
		}
		return jsonResult(streaks), nil, nil
	}
}

// GetExerciseProgressTool returns the MCP tool handler for get_exercise_progress.
func (h *Handler) GetExerciseProgressTool() func(context.Context, *mcp.CallToolRequest, ExerciseProgressInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseProgressInput) (*mcp.CallToolResult, any, error) {
		if in.ExerciseName == "" {
			return errorResult("Missing exercise_name"), nil, nil
		}
		f, errRes := parseFilter(FilterInput{FromDate: in.FromDate, ToDate: in.ToDate, RoutineID: in.RoutineID})
		if errRes != nil {
			return errRes, nil, nil
		}
		progress, err := h.service.GetExerciseProgress(ctx, in.ExerciseName, f)
		if err != nil {
			return errorResult("Error computing exercise progress: " + err.Error()), nil, nil
		}
		return jsonResult(progress), nil, nil
	}
}

func parseFilter(in FilterInput) (workouts.Filter, *mcp.CallToolResult) {
	f := workouts.Filter{
		RoutineID:    in.RoutineID,
		ExerciseName: in.ExerciseName,
	}
	if in.FromDate != "" {
		from, err := time.ParseInLocation(dateLayout, in.FromDate, time.Local)
		if err != nil {
			return f, errorResult("Invalid from_date: use YYYY-MM-DD")
		}
		f.From = &from
	}
	if in.ToDate != "" {
		to, err := time.ParseInLocation(dateLayout, in.ToDate, time.Local)
		if err != nil {
			return f, errorResult("Invalid to_date: use YYYY-MM-DD")
		}
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())
		f.To = &to
	}
	return f, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}
