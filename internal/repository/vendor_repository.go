package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendata/vendata/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type vendorRepository struct {
	pool *pgxpool.Pool
}

// NewVendorRepository wires a repository backed by pgxpool.
func NewVendorRepository(pool *pgxpool.Pool) VendorRepository {
	return &vendorRepository{pool: pool}
}

func (r *vendorRepository) Upsert(ctx context.Context, profile domain.VendorProfile) (domain.VendorProfile, error) {
	if r.pool == nil {
		return domain.VendorProfile{}, fmt.Errorf("vendor repository not initialized")
	}

	var mappingJSON []byte
	if profile.Mapping != nil {
		encoded, err := json.Marshal(profile.Mapping)
		if err != nil {
			return domain.VendorProfile{}, fmt.Errorf("failed to encode mapping: %w", err)
		}
		mappingJSON = encoded
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO vendors (vendor_id, name, mapping, mapping_confidence, assume_finance_selected)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (vendor_id) DO UPDATE SET
		   name = EXCLUDED.name,
		   mapping = EXCLUDED.mapping,
		   mapping_confidence = EXCLUDED.mapping_confidence,
		   assume_finance_selected = EXCLUDED.assume_finance_selected,
		   updated_at = now()
		 RETURNING created_at, updated_at`,
		profile.VendorID,
		profile.Name,
		mappingJSON,
		profile.MappingConfidence,
		profile.AssumeFinanceSelected,
	)
	if err := row.Scan(&profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return domain.VendorProfile{}, fmt.Errorf("failed to upsert vendor: %w", err)
	}
	return profile, nil
}

func (r *vendorRepository) GetByID(ctx context.Context, vendorID string) (domain.VendorProfile, error) {
	if r.pool == nil {
		return domain.VendorProfile{}, fmt.Errorf("vendor repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT vendor_id, name, mapping, mapping_confidence, assume_finance_selected, created_at, updated_at
		 FROM vendors
		 WHERE vendor_id = $1`,
		vendorID,
	)
	profile, err := scanVendor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VendorProfile{}, fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return profile, err
}

func (r *vendorRepository) List(ctx context.Context) ([]domain.VendorProfile, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("vendor repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT vendor_id, name, mapping, mapping_confidence, assume_finance_selected, created_at, updated_at
		 FROM vendors
		 ORDER BY vendor_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	profiles := []domain.VendorProfile{}
	for rows.Next() {
		profile, scanErr := scanVendor(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, profile)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate vendors: %w", rowsErr)
	}
	return profiles, nil
}

func (r *vendorRepository) Delete(ctx context.Context, vendorID string) error {
	if r.pool == nil {
		return fmt.Errorf("vendor repository not initialized")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM vendors WHERE vendor_id = $1`, vendorID)
	if err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vendor %s: %w", vendorID, ErrNotFound)
	}
	return nil
}

func scanVendor(row pgx.Row) (domain.VendorProfile, error) {
	var (
		profile     domain.VendorProfile
		mappingJSON []byte
	)
	if err := row.Scan(
		&profile.VendorID,
		&profile.Name,
		&mappingJSON,
		&profile.MappingConfidence,
		&profile.AssumeFinanceSelected,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VendorProfile{}, err
		}
		return domain.VendorProfile{}, fmt.Errorf("failed to scan vendor: %w", err)
	}

	if len(mappingJSON) > 0 {
		mapping, err := domain.ImportMapping(mappingJSON)
		if err != nil {
			return domain.VendorProfile{}, fmt.Errorf("failed to decode stored mapping: %w", err)
		}
		profile.Mapping = mapping
	}
	return profile, nil
}
