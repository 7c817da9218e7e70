package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReportNotFound = errors.New("report not found")

// Repository provides data access for reports. The schema keeps the status
// trail in a jsonb column; the repository only exposes create-with-seed and
// append operations so history stays append-only by construction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reportColumns = `id, reporter_identity, reporter_user_id, description, photo_url, lat, lng, icon_name, status, history, photo_hint, created_at`

// Create inserts a report with its seeded history trail and returns the
// assigned id.
func (r *Repository) Create(ctx context.Context, report *Report) error {
	history, err := json.Marshal(report.History)
	if err != nil {
		return fmt.Errorf("marshal report history: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO reports (reporter_identity, reporter_user_id, description, photo_url, lat, lng, icon_name, status, history, photo_hint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, report.ReporterIdentity, report.ReporterUserID, report.Description, report.PhotoURL,
		report.Latitude, report.Longitude, report.IconName, report.Status, history, report.PhotoHint,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID fetches one report.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// List returns reports newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	results := make([]Report, 0, limit)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		results = append(results, *report)
	}
	return results, rows.Err()
}

// AppendStatus updates the status and appends exactly one history entry in a
// single statement, keeping the trail consistent with the current status.
func (r *Repository) AppendStatus(ctx context.Context, id uuid.UUID, newStatus string, entry HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE reports
		SET status = $2, history = history || $3::jsonb
		WHERE id = $1
	`, id, newStatus, payload)
	if err != nil {
		return fmt.Errorf("append report status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// UpdatePhotoURL re-points a report at a mirrored photo location.
func (r *Repository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reports SET photo_url = $2 WHERE id = $1`, id, photoURL)
	if err != nil {
		return fmt.Errorf("update report photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// Leaderboard aggregates per-reporter scores: Resolved 10, In Progress 5,
// Submitted 1. Top 10, ties broken by report count.
func (r *Repository) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT reporter_identity,
		       COUNT(*) AS report_count,
		       SUM(CASE status
		           WHEN 'Resolved' THEN 10
		           WHEN 'In Progress' THEN 5
		           ELSE 1
		       END) AS score
		FROM reports
		GROUP BY reporter_identity
		ORDER BY score DESC, report_count DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := make([]LeaderboardEntry, 0, 10)
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(&entry.ReporterIdentity, &entry.ReportCount, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the total number of reports.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

// RecentDescriptions returns the newest report descriptions, used by the
// assist helpers for grounding.
func (r *Repository) RecentDescriptions(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT description FROM reports ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent descriptions: %w", err)
	}
	defer rows.Close()

	descriptions := make([]string, 0, limit)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan description: %w", err)
		}
		descriptions = append(descriptions, d)
	}
	return descriptions, rows.Err()
}

func scanReport(row pgx.Row) (*Report, error) {
	var report Report
	var history []byte
	err := row.Scan(
		&report.ID, &report.ReporterIdentity, &report.ReporterUserID, &report.Description,
		&report.PhotoURL, &report.Latitude, &report.Longitude, &report.IconName,
		&report.Status, &history, &report.PhotoHint, &report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &report.History); err != nil {
		return nil, fmt.Errorf("decode report history: %w", err)
	}
	return &report, nil
}
