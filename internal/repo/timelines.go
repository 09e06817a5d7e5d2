package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"quotevault-api/internal/model"
	"quotevault-api/pkg/timeline"
)

// ErrTimelineNotFound signals that durable storage holds no points for the
// requested symbol.
var ErrTimelineNotFound = errors.New("timeline not found")

// TimelineRepository is the durable store for per-symbol OHLCV timelines.
type TimelineRepository struct {
	points   model.PricePointsModel
	currency string
}

// NewTimelineRepository wires the repository. Currency tags timelines loaded
// from rows that predate the currency column.
func NewTimelineRepository(points model.PricePointsModel, currency string) *TimelineRepository {
	if currency == "" {
		currency = "USD"
	}
	return &TimelineRepository{points: points, currency: currency}
}

// GetTimeline reconstructs the full timeline for a symbol from storage.
// Returns ErrTimelineNotFound when no rows exist.
func (r *TimelineRepository) GetTimeline(ctx context.Context, symbol string) (*timeline.Timeline, error) {
	rows, err := r.points.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("repo: load timeline %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, ErrTimelineNotFound
	}

	currency := r.currency
	if rows[0].Currency != "" {
		currency = rows[0].Currency
	}
	tl := timeline.New(strings.ToUpper(symbol), currency)
	tl.AddPoints(rowsToPoints(rows))
	tl.MarkClean()
	return tl, nil
}

// BulkSavePoints persists points one by one. A duplicate-key conflict or an
// invalid point is skipped, never fatal to the batch; the returned count is
// the number of rows actually written.
func (r *TimelineRepository) BulkSavePoints(ctx context.Context, symbol string, points []timeline.Point) (int, error) {
	saved := 0
	var lastErr error
	for _, p := range points {
		_, err := r.points.Insert(ctx, pointToRow(symbol, r.currency, p))
		if err != nil {
			if model.IsDuplicateKey(err) {
				continue
			}
			lastErr = err
			logx.WithContext(ctx).Errorf("repo: save point %s@%s: %v", symbol, p.Timestamp.Format(time.RFC3339), err)
			continue
		}
		saved++
	}
	if saved == 0 && lastErr != nil {
		return 0, fmt.Errorf("repo: bulk save %s: %w", symbol, lastErr)
	}
	return saved, nil
}

// UpsertPoint writes one bar, replacing any stored values for its key. Bars
// still being revised, like the current session's candle, go through here so
// corrections reach durable storage.
func (r *TimelineRepository) UpsertPoint(ctx context.Context, symbol string, p timeline.Point) error {
	if err := r.points.Upsert(ctx, pointToRow(symbol, r.currency, p)); err != nil {
		return fmt.Errorf("repo: upsert point %s@%s: %w", symbol, p.Timestamp.Format(time.RFC3339), err)
	}
	return nil
}

// DeleteOldPoints removes persisted bars older than the cutoff.
func (r *TimelineRepository) DeleteOldPoints(ctx context.Context, symbol string, olderThan time.Time) (int, error) {
	n, err := r.points.DeleteOlderThan(ctx, symbol, olderThan)
	if err != nil {
		return 0, fmt.Errorf("repo: delete old points %s: %w", symbol, err)
	}
	return int(n), nil
}

// PointsInRange loads bars within [start, end] for a symbol, oldest first.
// The interval filter is optional.
func (r *TimelineRepository) PointsInRange(ctx context.Context, symbol string, start, end time.Time, interval timeline.Interval) ([]timeline.Point, error) {
	rows, err := r.points.FindRange(ctx, symbol, start, end, string(interval))
	if err != nil {
		return nil, fmt.Errorf("repo: range %s: %w", symbol, err)
	}
	return rowsToPoints(rows), nil
}

// Symbols lists every symbol present in durable storage.
func (r *TimelineRepository) Symbols(ctx context.Context) ([]string, error) {
	return r.points.DistinctSymbols(ctx)
}

func pointToRow(symbol, currency string, p timeline.Point) *model.PricePoints {
	return &model.PricePoints{
		Symbol:      strings.ToUpper(symbol),
		Ts:          p.Timestamp.UTC(),
		BarInterval: string(p.Interval),
		Open:        p.Open,
		High:        p.High,
		Low:         p.Low,
		Close:       p.Close,
		AdjClose:    p.AdjClose,
		Volume:      p.Volume,
		Source:      string(p.Source),
		Currency:    currency,
		CreatedAt:   p.CreatedAt,
	}
}

func rowsToPoints(rows []model.PricePoints) []timeline.Point {
	points := make([]timeline.Point, 0, len(rows))
	for _, row := range rows {
		point, err := timeline.NewPoint(
			row.Ts,
			row.Open,
			row.High,
			row.Low,
			row.Close,
			row.AdjClose,
			row.Volume,
			timeline.Interval(row.BarInterval),
			timeline.Source(row.Source),
		)
		if err != nil {
			logx.Errorf("repo: dropping invalid stored bar %s@%s: %v", row.Symbol, row.Ts.Format(time.RFC3339), err)
			continue
		}
		point.CreatedAt = row.CreatedAt
		points = append(points, point)
	}
	return points
}
