package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	econerrors "github.com/macrostat/econdata/internal/errors"
	models "github.com/macrostat/econdata/internal/model"
	"github.com/macrostat/econdata/internal/period"
)

type DBStorage struct {
	db *sql.DB
}

func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", econerrors.ErrDatabaseConnection, err)
	}
	return &DBStorage{db: dbConnect}, nil
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

var upsertDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return true
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return true
		}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}

// UpsertObservations writes the batch in one transaction, retrying transient
// failures with a fixed delay ladder.
func (storage *DBStorage) UpsertObservations(ctx context.Context, obs []models.Observation) (int, int, error) {
	var inserted, updated int
	var lastErr error

	for attempt := 0; attempt <= len(upsertDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(upsertDelays[attempt-1]):
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			}
		}

		var err error
		inserted, updated, err = storage.upsertOnce(ctx, obs)
		if err == nil {
			return inserted, updated, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return 0, 0, err
		}
	}
	return 0, 0, lastErr
}

func (storage *DBStorage) upsertOnce(ctx context.Context, obs []models.Observation) (int, int, error) {
	tx, err := storage.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", econerrors.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	stmtExist, err := tx.PrepareContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM observations WHERE country = $1 AND period = $2 AND metric = $3)")
	if err != nil {
		return 0, 0, fmt.Errorf("error preparing existence check: %w", err)
	}
	defer stmtExist.Close()

	stmtUpsert, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (country, period, metric, value, unit, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (country, period, metric)
		DO UPDATE SET
			value = EXCLUDED.value,
			unit = EXCLUDED.unit,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return 0, 0, fmt.Errorf("error preparing upsert: %w", err)
	}
	defer stmtUpsert.Close()

	var inserted, updated int
	for _, o := range obs {
		var exists bool
		err = stmtExist.QueryRowContext(ctx, o.Country, o.Period, o.Metric).Scan(&exists)
		if err != nil {
			return 0, 0, fmt.Errorf("error checking if observation exists: %w", err)
		}
		_, err = stmtUpsert.ExecContext(ctx, o.Country, o.Period, o.Metric, o.Value, o.Unit, o.Source)
		if err != nil {
			return 0, 0, fmt.Errorf("error saving observation: %w", err)
		}
		if exists {
			updated++
		} else {
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("error committing upsert: %w", err)
	}
	return inserted, updated, nil
}

func (storage *DBStorage) SeriesByMetric(ctx context.Context, metric string) ([]models.Series, error) {
	query := "SELECT country, period, value FROM observations WHERE metric = $1 ORDER BY country, period"
	rows, err := storage.db.QueryContext(ctx, query, metric)
	if err != nil {
		return nil, fmt.Errorf("error retrieving series: %w", err)
	}
	defer rows.Close()

	byCountry := make(map[string][]models.Point)
	var order []string
	for rows.Next() {
		var country, periodLabel string
		var value float64
		if err = rows.Scan(&country, &periodLabel, &value); err != nil {
			return nil, fmt.Errorf("error scanning observation: %w", err)
		}
		if _, seen := byCountry[country]; !seen {
			order = append(order, country)
		}
		byCountry[country] = append(byCountry[country], models.Point{Period: periodLabel, Value: value})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over observations: %w", err)
	}

	series := make([]models.Series, 0, len(order))
	for _, country := range order {
		points := byCountry[country]
		sortPoints(points)
		series = append(series, models.Series{Country: country, Points: points})
	}
	return series, nil
}

// sortPoints orders points chronologically. Lexicographic period order from
// SQL is almost right, but mixed annual and quarterly labels are not.
func sortPoints(points []models.Point) {
	sort.Slice(points, func(i, j int) bool {
		return period.Less(points[i].Period, points[j].Period)
	})
}

func (storage *DBStorage) QuerySeries(ctx context.Context, f SeriesFilter) ([]models.Series, string, error) {
	query := "SELECT country, period, value, unit FROM observations WHERE metric = $1"
	args := []any{f.Metric}

	if len(f.Countries) > 0 {
		placeholders := make([]string, len(f.Countries))
		for i, c := range f.Countries {
			args = append(args, c)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += " AND country IN (" + strings.Join(placeholders, ",") + ")"
	}
	if f.Start != "" {
		args = append(args, f.Start)
		query += fmt.Sprintf(" AND period >= $%d", len(args))
	}
	if f.End != "" {
		args = append(args, f.End)
		query += fmt.Sprintf(" AND period <= $%d", len(args))
	}
	query += " ORDER BY country, period"

	rows, err := storage.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("error retrieving series: %w", err)
	}
	defer rows.Close()

	byCountry := make(map[string][]models.Point)
	var order []string
	var unit string
	for rows.Next() {
		var country, periodLabel string
		var value float64
		var rowUnit sql.NullString
		if err = rows.Scan(&country, &periodLabel, &value, &rowUnit); err != nil {
			return nil, "", fmt.Errorf("error scanning observation: %w", err)
		}
		if unit == "" && rowUnit.Valid {
			unit = rowUnit.String
		}
		if _, seen := byCountry[country]; !seen {
			order = append(order, country)
		}
		byCountry[country] = append(byCountry[country], models.Point{Period: periodLabel, Value: value})
	}
	if err = rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating over observations: %w", err)
	}

	series := make([]models.Series, 0, len(order))
	for _, country := range order {
		points := byCountry[country]
		sortPoints(points)
		series = append(series, models.Series{Country: country, Points: points})
	}
	return series, unit, nil
}

func (storage *DBStorage) JoinMetrics(ctx context.Context, metric1, metric2 string, countries []string) ([]models.PairedPoint, string, string, error) {
	query := `
		SELECT m1.country, m1.period, m1.value, m1.unit, m2.value, m2.unit
		FROM observations m1
		INNER JOIN observations m2
			ON m1.country = m2.country AND m1.period = m2.period
		WHERE m1.metric = $1 AND m2.metric = $2`
	args := []any{metric1, metric2}

	if len(countries) > 0 {
		placeholders := make([]string, len(countries))
		for i, c := range countries {
			args = append(args, c)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += " AND m1.country IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY m1.country, m1.period"

	rows, err := storage.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", "", fmt.Errorf("error joining metrics: %w", err)
	}
	defer rows.Close()

	var pairs []models.PairedPoint
	var unit1, unit2 string
	for rows.Next() {
		var p models.PairedPoint
		var u1, u2 sql.NullString
		if err = rows.Scan(&p.Country, &p.Period, &p.Value1, &u1, &p.Value2, &u2); err != nil {
			return nil, "", "", fmt.Errorf("error scanning joined observation: %w", err)
		}
		if unit1 == "" && u1.Valid {
			unit1 = u1.String
		}
		if unit2 == "" && u2.Valid {
			unit2 = u2.String
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, "", "", fmt.Errorf("error iterating over joined observations: %w", err)
	}
	return pairs, unit1, unit2, nil
}

// JoinAnnual matches a quarterly series against an annual one by extracting
// the year from the quarter label, e.g. 2024-Q1 joins against 2024.
func (storage *DBStorage) JoinAnnual(ctx context.Context, quarterly, annual string) ([]models.PairedPoint, error) {
	query := `
		SELECT q.country, q.period, q.value, a.value
		FROM observations q
		INNER JOIN observations a
			ON q.country = a.country AND substring(q.period from 1 for 4) = a.period
		WHERE q.metric = $1 AND a.metric = $2
		ORDER BY q.country, q.period`

	rows, err := storage.db.QueryContext(ctx, query, quarterly, annual)
	if err != nil {
		return nil, fmt.Errorf("error joining annual metric: %w", err)
	}
	defer rows.Close()

	var pairs []models.PairedPoint
	for rows.Next() {
		var p models.PairedPoint
		if err = rows.Scan(&p.Country, &p.Period, &p.Value1, &p.Value2); err != nil {
			return nil, fmt.Errorf("error scanning joined observation: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over joined observations: %w", err)
	}
	return pairs, nil
}

func (storage *DBStorage) ObservationsForPeriod(ctx context.Context, periodLabel string) ([]models.Observation, error) {
	query := "SELECT country, period, metric, value FROM observations WHERE period = $1 ORDER BY country, metric"
	rows, err := storage.db.QueryContext(ctx, query, periodLabel)
	if err != nil {
		return nil, fmt.Errorf("error retrieving observations: %w", err)
	}
	defer rows.Close()

	var obs []models.Observation
	for rows.Next() {
		var o models.Observation
		if err = rows.Scan(&o.Country, &o.Period, &o.Metric, &o.Value); err != nil {
			return nil, fmt.Errorf("error scanning observation: %w", err)
		}
		obs = append(obs, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over observations: %w", err)
	}
	return obs, nil
}

func (storage *DBStorage) HasObservation(ctx context.Context, metric, country, periodLabel string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM observations WHERE metric = $1 AND country = $2 AND period = $3)"
	err := storage.db.QueryRowContext(ctx, query, metric, country, periodLabel).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking if observation exists: %w", err)
	}
	return exists, nil
}

func (storage *DBStorage) DeleteObservation(ctx context.Context, metric, country, periodLabel string) error {
	query := "DELETE FROM observations WHERE metric = $1 AND country = $2 AND period = $3"
	_, err := storage.db.ExecContext(ctx, query, metric, country, periodLabel)
	if err != nil {
		return fmt.Errorf("error deleting observation: %w", err)
	}
	return nil
}

func (storage *DBStorage) RelabelObservation(ctx context.Context, metric, country, from, to string) error {
	query := "UPDATE observations SET period = $1, updated_at = NOW() WHERE metric = $2 AND country = $3 AND period = $4"
	_, err := storage.db.ExecContext(ctx, query, to, metric, country, from)
	if err != nil {
		return fmt.Errorf("error relabeling observation: %w", err)
	}
	return nil
}

func (storage *DBStorage) DeleteCountryMetric(ctx context.Context, metric, country string) (int64, error) {
	query := "DELETE FROM observations WHERE metric = $1 AND country = $2"
	res, err := storage.db.ExecContext(ctx, query, metric, country)
	if err != nil {
		return 0, fmt.Errorf("error deleting country series: %w", err)
	}
	return res.RowsAffected()
}

func (storage *DBStorage) DeleteMetric(ctx context.Context, metric string) (int64, error) {
	query := "DELETE FROM observations WHERE metric = $1"
	res, err := storage.db.ExecContext(ctx, query, metric)
	if err != nil {
		return 0, fmt.Errorf("error deleting metric: %w", err)
	}
	return res.RowsAffected()
}

func (storage *DBStorage) ListMetrics(ctx context.Context) ([]models.MetricInfo, error) {
	query := `
		SELECT metric, COALESCE(unit, ''), COALESCE(source, ''),
			COUNT(*), MIN(period), MAX(period)
		FROM observations
		GROUP BY metric, unit, source
		ORDER BY metric`
	rows, err := storage.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.MetricInfo
	for rows.Next() {
		var m models.MetricInfo
		if err = rows.Scan(&m.Name, &m.Unit, &m.Source, &m.DataPoints, &m.TimeRange.Start, &m.TimeRange.End); err != nil {
			return nil, fmt.Errorf("error scanning metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over metrics: %w", err)
	}
	return metrics, nil
}

func (storage *DBStorage) ListCountries(ctx context.Context, metric string) ([]models.CountryInfo, error) {
	var rows *sql.Rows
	var err error
	if metric != "" {
		query := "SELECT country, COUNT(*) FROM observations WHERE metric = $1 GROUP BY country ORDER BY country"
		rows, err = storage.db.QueryContext(ctx, query, metric)
	} else {
		query := "SELECT country, COUNT(*) FROM observations GROUP BY country ORDER BY country"
		rows, err = storage.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving countries: %w", err)
	}
	defer rows.Close()

	var countries []models.CountryInfo
	for rows.Next() {
		var c models.CountryInfo
		if err = rows.Scan(&c.Name, &c.DataPoints); err != nil {
			return nil, fmt.Errorf("error scanning country: %w", err)
		}
		countries = append(countries, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over countries: %w", err)
	}
	return countries, nil
}

func (storage *DBStorage) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	query := `
		SELECT COUNT(*), COUNT(DISTINCT metric), COUNT(DISTINCT country),
			COUNT(DISTINCT period), COALESCE(MIN(period), ''), COALESCE(MAX(period), '')
		FROM observations`
	err := storage.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalRecords,
		&stats.UniqueMetrics,
		&stats.UniqueCountries,
		&stats.UniquePeriods,
		&stats.TimeRange.Start,
		&stats.TimeRange.End,
	)
	if err != nil {
		return models.Stats{}, fmt.Errorf("error retrieving stats: %w", err)
	}
	return stats, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", econerrors.ErrDatabaseConnection, err)
	}
	return nil
}
