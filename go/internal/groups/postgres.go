package groups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/barbell/go/internal/models"
)

// querier is the part of pgxpool.Pool the source uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSource reads groups from the competition database (see schema.sql).
type PostgresSource struct {
	db querier
}

// NewPostgresSource wraps an open pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: pool}
}

// Connect opens a pool on dsn and checks it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

const getGroupQuery = `
SELECT name, COALESCE(description, ''), COALESCE(platform, '')
FROM competition_groups
WHERE name = $1`

const listAthletesQuery = `
SELECT a.id, a.first_name, a.last_name, COALESCE(a.team, ''), COALESCE(a.category, ''),
       COALESCE(a.body_weight, 0), a.start_number, a.lot_number,
       t.attempt_no, t.declared, t.result, t.lifted_at
FROM athletes a
LEFT JOIN attempts t ON t.athlete_id = a.id
WHERE a.group_name = $1
ORDER BY a.start_number, a.id, t.attempt_no`

const listGroupsQuery = `SELECT name FROM competition_groups ORDER BY name`

// Group loads a group with its athletes and their attempts.
func (s *PostgresSource) Group(ctx context.Context, name string) (*models.Group, error) {
	g := &models.Group{}
	err := s.db.QueryRow(ctx, getGroupQuery, name).Scan(&g.Name, &g.Description, &g.Platform)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", name, err)
	}

	rows, err := s.db.Query(ctx, listAthletesQuery, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes of %s: %w", name, err)
	}
	defer rows.Close()

	var current *models.Athlete
	for rows.Next() {
		var (
			a         models.Athlete
			attemptNo *int32
			declared  *int32
			result    *string
			liftedAt  *time.Time
		)
		if err := rows.Scan(
			&a.ID, &a.FirstName, &a.LastName, &a.Team, &a.Category,
			&a.BodyWeight, &a.StartNumber, &a.LotNumber,
			&attemptNo, &declared, &result, &liftedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan athlete row: %w", err)
		}
		if current == nil || current.ID != a.ID {
			current = &a
			g.Athletes = append(g.Athletes, current)
		}
		if attemptNo == nil {
			continue
		}
		i := int(*attemptNo) - 1
		if i < 0 || i >= models.TotalAttempts {
			return nil, fmt.Errorf("athlete %s: attempt number %d out of range", a.ID, *attemptNo)
		}
		if declared != nil {
			current.Attempts[i].Declared = int(*declared)
		}
		if result != nil {
			current.Attempts[i].Result = models.AttemptResult(*result)
		}
		current.Attempts[i].LiftedAt = liftedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read athletes of %s: %w", name, err)
	}
	return g, nil
}

// Names lists the groups in the database.
func (s *PostgresSource) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, listGroupsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return names, nil
}
