package workouts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/gymtracker/internal/apperrors"
	"github.com/2beens/gymtracker/internal/kvstore"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	StorageKey      = "workoutHistory"
	MaxHistoryItems = 100
)

// HistoryRepo is the bounded, append-only workout log. Items are kept
// most recent first; appending beyond the limit drops the oldest ones.
type HistoryRepo struct {
	store          kvstore.Store
	limit          int
	metricsManager *metrics.Manager
}

func NewHistoryRepo(store kvstore.Store, limit int, metricsManager *metrics.Manager) *HistoryRepo {
	if limit <= 0 || limit > MaxHistoryItems {
		limit = MaxHistoryItems
	}
	return &HistoryRepo{
		store:          store,
		limit:          limit,
		metricsManager: metricsManager,
	}
}

// Append prepends the item and truncates the log to the limit.
// If the stored log cannot be read, nothing is written.
func (r *HistoryRepo) Append(ctx context.Context, item HistoryItem) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.append")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", item.ID))

	items, err := r.load(ctx)
	if err != nil {
		return err
	}

	updated := make([]HistoryItem, 0, len(items)+1)
	updated = append(updated, item.Clone())
	updated = append(updated, items...)
	if len(updated) > r.limit {
		span.SetAttributes(attribute.Int("evicted", len(updated)-r.limit))
		updated = updated[:r.limit]
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return apperrors.NewStorageWriteError(StorageKey, fmt.Errorf("marshal history: %w", err))
	}
	if err := r.store.Set(ctx, StorageKey, string(raw)); err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("write", StorageKey).Inc()
		return apperrors.NewStorageWriteError(StorageKey, err)
	}
	return nil
}

// List returns the log, most recent first. On failure the returned slice is
// empty (never nil) and err is a *apperrors.StorageError.
func (r *HistoryRepo) List(ctx context.Context) (_ []HistoryItem, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	items, err := r.load(ctx)
	if err != nil {
		return []HistoryItem{}, err
	}
	span.SetAttributes(attribute.Int("count", len(items)))
	return items, nil
}

func (r *HistoryRepo) load(ctx context.Context) ([]HistoryItem, error) {
	raw, found, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("read", StorageKey).Inc()
		return nil, apperrors.NewStorageReadError(StorageKey, err)
	}
	if !found || raw == "" {
		return []HistoryItem{}, nil
	}

	var items []HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.metricsManager.CounterStorageErrors.WithLabelValues("read", StorageKey).Inc()
		return nil, apperrors.NewStorageReadError(StorageKey, fmt.Errorf("unmarshal history: %w", err))
	}
	if items == nil {
		items = []HistoryItem{}
	}
	return items, nil
}
