package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PricePointsModel = (*customPricePointsModel)(nil)

// pricePointsFieldNames is the column list shared by every query.
const pricePointsFieldNames = "symbol, ts, bar_interval, open, high, low, close, adj_close, volume, source, currency, created_at"

// PricePoints maps one row of the price_points table. The primary key is
// (symbol, ts, bar_interval).
type PricePoints struct {
	Symbol      string    `db:"symbol"`
	Ts          time.Time `db:"ts"`
	BarInterval string    `db:"bar_interval"`
	Open        float64   `db:"open"`
	High        float64   `db:"high"`
	Low         float64   `db:"low"`
	Close       float64   `db:"close"`
	AdjClose    float64   `db:"adj_close"`
	Volume      int64     `db:"volume"`
	Source      string    `db:"source"`
	Currency    string    `db:"currency"`
	CreatedAt   time.Time `db:"created_at"`
}

type (
	// PricePointsModel is an interface to be customized, add more methods here,
	// and implement the added methods in customPricePointsModel.
	PricePointsModel interface {
		pricePointsModel
		FindRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]PricePoints, error)
		LatestTimestamp(ctx context.Context, symbol string) (time.Time, error)
		DeleteOlderThan(ctx context.Context, symbol string, cutoff time.Time) (int64, error)
		DistinctSymbols(ctx context.Context) ([]string, error)
	}

	pricePointsModel interface {
		Insert(ctx context.Context, data *PricePoints) (sql.Result, error)
		Upsert(ctx context.Context, data *PricePoints) error
		FindBySymbol(ctx context.Context, symbol string) ([]PricePoints, error)
		FindOne(ctx context.Context, symbol string, ts time.Time, interval string) (*PricePoints, error)
	}

	customPricePointsModel struct {
		conn sqlx.SqlConn
	}
)

// NewPricePointsModel returns a model for the price_points table.
func NewPricePointsModel(conn sqlx.SqlConn) PricePointsModel {
	return &customPricePointsModel{conn: conn}
}

// IsDuplicateKey reports whether the error is a Postgres unique violation.
func IsDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Insert writes one bar. A primary key collision surfaces as a Postgres
// unique violation; callers classify it with IsDuplicateKey.
func (m *customPricePointsModel) Insert(ctx context.Context, data *PricePoints) (sql.Result, error) {
	query := fmt.Sprintf(`
INSERT INTO public.price_points (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())`, pricePointsFieldNames)
	result, err := m.conn.ExecCtx(ctx, query,
		strings.ToUpper(data.Symbol),
		data.Ts.UTC(),
		data.BarInterval,
		data.Open,
		data.High,
		data.Low,
		data.Close,
		data.AdjClose,
		data.Volume,
		data.Source,
		data.Currency,
	)
	if err != nil {
		return nil, fmt.Errorf("price_points.Insert %s@%s: %w", data.Symbol, data.Ts.Format(time.RFC3339), err)
	}
	return result, nil
}

// Upsert writes one bar, replacing the stored values on a primary key
// collision. Used for bars that are still being revised, like the current
// session's candle.
func (m *customPricePointsModel) Upsert(ctx context.Context, data *PricePoints) error {
	query := fmt.Sprintf(`
INSERT INTO public.price_points (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
ON CONFLICT (symbol, ts, bar_interval) DO UPDATE SET
	open = EXCLUDED.open,
	high = EXCLUDED.high,
	low = EXCLUDED.low,
	close = EXCLUDED.close,
	adj_close = EXCLUDED.adj_close,
	volume = EXCLUDED.volume,
	source = EXCLUDED.source,
	currency = EXCLUDED.currency`, pricePointsFieldNames)
	_, err := m.conn.ExecCtx(ctx, query,
		strings.ToUpper(data.Symbol),
		data.Ts.UTC(),
		data.BarInterval,
		data.Open,
		data.High,
		data.Low,
		data.Close,
		data.AdjClose,
		data.Volume,
		data.Source,
		data.Currency,
	)
	if err != nil {
		return fmt.Errorf("price_points.Upsert %s@%s: %w", data.Symbol, data.Ts.Format(time.RFC3339), err)
	}
	return nil
}

// FindOne loads a single bar by primary key.
func (m *customPricePointsModel) FindOne(ctx context.Context, symbol string, ts time.Time, interval string) (*PricePoints, error) {
	query := fmt.Sprintf(`
SELECT %s FROM public.price_points
WHERE symbol = $1 AND ts = $2 AND bar_interval = $3
LIMIT 1`, pricePointsFieldNames)
	var row PricePoints
	err := m.conn.QueryRowCtx(ctx, &row, query, strings.ToUpper(symbol), ts.UTC(), interval)
	switch {
	case err == nil:
		return &row, nil
	case errors.Is(err, sqlx.ErrNotFound):
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

// FindBySymbol loads every stored bar for a symbol, oldest first.
func (m *customPricePointsModel) FindBySymbol(ctx context.Context, symbol string) ([]PricePoints, error) {
	query := fmt.Sprintf(`
SELECT %s FROM public.price_points
WHERE symbol = $1
ORDER BY ts`, pricePointsFieldNames)
	var rows []PricePoints
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, strings.ToUpper(symbol)); err != nil {
		return nil, fmt.Errorf("price_points.FindBySymbol %s: %w", symbol, err)
	}
	return rows, nil
}

// FindRange loads bars within [start, end], optionally filtered by interval.
func (m *customPricePointsModel) FindRange(ctx context.Context, symbol string, start, end time.Time, interval string) ([]PricePoints, error) {
	const baseQuery = `
SELECT %s FROM public.price_points
WHERE symbol = $1 AND ts >= $2 AND ts <= $3
%s
ORDER BY ts`
	var (
		clause string
		args   = []any{strings.ToUpper(symbol), start.UTC(), end.UTC()}
	)
	if interval != "" {
		clause = "AND bar_interval = $4"
		args = append(args, interval)
	}
	query := fmt.Sprintf(baseQuery, pricePointsFieldNames, clause)
	var rows []PricePoints
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("price_points.FindRange %s: %w", symbol, err)
	}
	return rows, nil
}

// LatestTimestamp returns the newest stored bar timestamp for a symbol.
func (m *customPricePointsModel) LatestTimestamp(ctx context.Context, symbol string) (time.Time, error) {
	const query = `SELECT ts FROM public.price_points WHERE symbol = $1 ORDER BY ts DESC LIMIT 1`
	var ts time.Time
	err := m.conn.QueryRowCtx(ctx, &ts, query, strings.ToUpper(symbol))
	switch {
	case err == nil:
		return ts, nil
	case errors.Is(err, sqlx.ErrNotFound):
		return time.Time{}, ErrNotFound
	default:
		return time.Time{}, err
	}
}

// DeleteOlderThan removes bars older than the cutoff, returning the count.
func (m *customPricePointsModel) DeleteOlderThan(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM public.price_points WHERE symbol = $1 AND ts < $2`
	result, err := m.conn.ExecCtx(ctx, query, strings.ToUpper(symbol), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("price_points.DeleteOlderThan %s: %w", symbol, err)
	}
	return result.RowsAffected()
}

// DistinctSymbols lists every symbol with at least one stored bar.
func (m *customPricePointsModel) DistinctSymbols(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT symbol FROM public.price_points ORDER BY symbol`
	var symbols []string
	if err := m.conn.QueryRowsCtx(ctx, &symbols, query); err != nil {
		return nil, fmt.Errorf("price_points.DistinctSymbols: %w", err)
	}
	return symbols, nil
}
