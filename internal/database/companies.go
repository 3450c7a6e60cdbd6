package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brainless/getmarket/internal/models"
)

// ErrCompanyNotFound is returned when a symbol lookup matches no row.
var ErrCompanyNotFound = errors.New("company not found")

// querier is satisfied by both *sql.DB and *sql.Tx so company lookups
// can run inside or outside the per-date ingestion transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetCompanyBySymbol retrieves a company by its exchange symbol
func (db *DB) GetCompanyBySymbol(ctx context.Context, symbol string) (*models.Company, error) {
	return getCompanyBySymbol(ctx, db.conn, symbol)
}

func getCompanyBySymbol(ctx context.Context, q querier, symbol string) (*models.Company, error) {
	query := `
		SELECT id, symbol, isin, series, name, created_at, updated_at
		FROM companies
		WHERE symbol = $1
	`
	var c models.Company
	var isin, series, name sql.NullString

	err := q.QueryRowContext(ctx, query, symbol).Scan(
		&c.ID, &c.Symbol, &isin, &series, &name, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	c.ISIN = isin.String
	c.Series = series.String
	c.Name = name.String
	return &c, nil
}

// mergeCompanyFields applies the company merge policy: a non-empty
// incoming ISIN/series/name overwrites the stored value, an empty one
// never erases it. Returns true when anything changed.
func mergeCompanyFields(c *models.Company, rec models.StockRecord) bool {
	changed := false
	if rec.ISIN != "" && rec.ISIN != c.ISIN {
		c.ISIN = rec.ISIN
		changed = true
	}
	if rec.Series != "" && rec.Series != c.Series {
		c.Series = rec.Series
		changed = true
	}
	return changed
}

// resolveCompany looks up a company by symbol inside the ingestion
// transaction, inserting it on first sighting and refreshing its
// descriptive fields on later ones. Timestamps are assigned here, not
// by database triggers, so the behavior is identical across engines.
//
// Concurrent transactions can both see a symbol as missing and race on
// the insert. The insert uses ON CONFLICT DO NOTHING purely as a race
// guard: a plain unique violation would abort the whole per-date
// transaction, while DO NOTHING lets the loser re-select the winner's
// row and continue with the normal merge path.
func resolveCompany(ctx context.Context, q querier, rec models.StockRecord, now time.Time) (int64, error) {
	existing, err := getCompanyBySymbol(ctx, q, rec.Symbol)
	if err != nil && !errors.Is(err, ErrCompanyNotFound) {
		return 0, err
	}

	if existing == nil {
		var id int64
		err := q.QueryRowContext(ctx, `
			INSERT INTO companies (symbol, isin, series, name, created_at, updated_at)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULL, $4, $4)
			ON CONFLICT (symbol) DO NOTHING
			RETURNING id
		`, rec.Symbol, rec.ISIN, rec.Series, now).Scan(&id)
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, sql.ErrNoRows):
			// Lost the insert race; pick up the committed row.
			existing, err = getCompanyBySymbol(ctx, q, rec.Symbol)
			if err != nil {
				return 0, fmt.Errorf("failed to resolve company %s after insert conflict: %w", rec.Symbol, err)
			}
		default:
			return 0, fmt.Errorf("failed to insert company %s: %w", rec.Symbol, err)
		}
	}

	if mergeCompanyFields(existing, rec) {
		_, err := q.ExecContext(ctx, `
			UPDATE companies
			SET isin = NULLIF($2, ''), series = NULLIF($3, ''), updated_at = $4
			WHERE id = $1
		`, existing.ID, existing.ISIN, existing.Series, now)
		if err != nil {
			return 0, fmt.Errorf("failed to update company %s: %w", rec.Symbol, err)
		}
	}
	return existing.ID, nil
}

// ListCompanies retrieves companies with pagination and optional
// symbol/name search and series filter, plus the unpaginated total.
func (db *DB) ListCompanies(ctx context.Context, limit, offset int, search, series string) ([]*models.Company, int64, error) {
	where := " WHERE 1=1"
	args := []any{}

	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (symbol ILIKE $%d OR name ILIKE $%d)", len(args), len(args))
	}
	if series != "" {
		args = append(args, series)
		where += fmt.Sprintf(" AND series = $%d", len(args))
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, symbol, isin, series, name, created_at, updated_at
		FROM companies%s
		ORDER BY symbol
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		var isin, series, name sql.NullString
		if err := rows.Scan(&c.ID, &c.Symbol, &isin, &series, &name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan company: %w", err)
		}
		c.ISIN = isin.String
		c.Series = series.String
		c.Name = name.String
		companies = append(companies, &c)
	}

	return companies, total, rows.Err()
}
