package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendata/vendata/internal/domain"
)

type errorLogRepository struct {
	pool *pgxpool.Pool
}

// NewErrorLogRepository wires a repository backed by pgxpool.
func NewErrorLogRepository(pool *pgxpool.Pool) ErrorLogRepository {
	return &errorLogRepository{pool: pool}
}

func (r *errorLogRepository) Record(ctx context.Context, entry *domain.StructuredError) error {
	if r.pool == nil {
		return fmt.Errorf("error log repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO ingestion_errors (id, occurred_at, vendor_id, severity, category, message,
		   affected_rows, recovery_attempted, recovery_succeeded, suggestions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID,
		entry.Timestamp,
		entry.VendorID,
		string(entry.Severity),
		string(entry.Category),
		entry.Message,
		entry.AffectedRows,
		entry.RecoveryAttempted,
		entry.RecoverySucceeded,
		entry.Suggestions,
	)
	if err != nil {
		return fmt.Errorf("failed to record structured error: %w", err)
	}
	return nil
}

func (r *errorLogRepository) List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.StructuredError, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("error log repository not initialized")
	}
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, occurred_at, vendor_id, severity, category, message,
		   affected_rows, recovery_attempted, recovery_succeeded, suggestions
		 FROM ingestion_errors
		 WHERE vendor_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2 OFFSET $3`,
		vendorID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list structured errors: %w", err)
	}
	defer rows.Close()

	entries := []domain.StructuredError{}
	for rows.Next() {
		var (
			entry    domain.StructuredError
			severity string
			category string
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.VendorID,
			&severity,
			&category,
			&entry.Message,
			&entry.AffectedRows,
			&entry.RecoveryAttempted,
			&entry.RecoverySucceeded,
			&entry.Suggestions,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan structured error: %w", scanErr)
		}
		entry.Severity = domain.Severity(severity)
		entry.Category = domain.ErrorCategory(category)
		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate structured errors: %w", rowsErr)
	}
	return entries, nil
}
