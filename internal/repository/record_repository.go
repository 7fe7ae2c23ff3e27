package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendata/vendata/internal/domain"
)

type recordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository wires a repository backed by pgxpool.
func NewRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

const recordColumns = `vendor_id, order_id, order_date, product_name, product_sku, product_category,
	order_value, finance_selected, finance_provider, finance_term_months,
	finance_decision_status, finance_decision_date, customer_id, sales_channel,
	customer_segment, country, region, postal_code, currency, deal_size_band`

func (r *recordRepository) UpsertBatch(ctx context.Context, records []domain.NormalizedRecord) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("record repository not initialized")
	}
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		var country, region, postalCode string
		if rec.Geography != nil {
			country = rec.Geography.Country
			region = rec.Geography.Region
			postalCode = rec.Geography.PostalCode
		}
		batch.Queue(
			`INSERT INTO records (`+recordColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			 ON CONFLICT (vendor_id, order_id) DO UPDATE SET
			   order_date = EXCLUDED.order_date,
			   product_name = EXCLUDED.product_name,
			   product_sku = EXCLUDED.product_sku,
			   product_category = EXCLUDED.product_category,
			   order_value = EXCLUDED.order_value,
			   finance_selected = EXCLUDED.finance_selected,
			   finance_provider = EXCLUDED.finance_provider,
			   finance_term_months = EXCLUDED.finance_term_months,
			   finance_decision_status = EXCLUDED.finance_decision_status,
			   finance_decision_date = EXCLUDED.finance_decision_date,
			   customer_id = EXCLUDED.customer_id,
			   sales_channel = EXCLUDED.sales_channel,
			   customer_segment = EXCLUDED.customer_segment,
			   country = EXCLUDED.country,
			   region = EXCLUDED.region,
			   postal_code = EXCLUDED.postal_code,
			   currency = EXCLUDED.currency,
			   deal_size_band = EXCLUDED.deal_size_band,
			   updated_at = now()`,
			rec.VendorID,
			rec.OrderID,
			rec.OrderDate,
			rec.ProductName,
			rec.ProductSKU,
			rec.ProductCategory,
			rec.OrderValue,
			rec.FinanceSelected,
			rec.FinanceProvider,
			rec.FinanceTermMonths,
			string(rec.FinanceDecisionStatus),
			rec.FinanceDecisionDate,
			rec.CustomerID,
			string(rec.SalesChannel),
			string(rec.CustomerSegment),
			country,
			region,
			postalCode,
			rec.Currency,
			string(rec.DealSizeBand),
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	written := 0
	for range records {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("failed to upsert record: %w", err)
		}
		written++
	}
	return written, nil
}

func (r *recordRepository) GetByKey(ctx context.Context, key domain.DedupKey) (domain.NormalizedRecord, error) {
	if r.pool == nil {
		return domain.NormalizedRecord{}, fmt.Errorf("record repository not initialized")
	}

	row := r.pool.QueryRow(
		ctx,
		`SELECT `+recordColumns+`
		 FROM records
		 WHERE vendor_id = $1 AND order_id = $2`,
		key.VendorID,
		key.OrderID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NormalizedRecord{}, fmt.Errorf("record %s/%s: %w", key.VendorID, key.OrderID, ErrNotFound)
	}
	return rec, err
}

func (r *recordRepository) List(ctx context.Context, vendorID string, limit int, offset int) ([]domain.NormalizedRecord, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("record repository not initialized")
	}
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE vendor_id = $1`, vendorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+recordColumns+`
		 FROM records
		 WHERE vendor_id = $1
		 ORDER BY order_date, order_id
		 LIMIT $2 OFFSET $3`,
		vendorID,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []domain.NormalizedRecord{}
	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		records = append(records, rec)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("failed to iterate records: %w", rowsErr)
	}
	return records, total, nil
}

func (r *recordRepository) ExistingKeys(ctx context.Context, vendorID string) (map[domain.DedupKey]struct{}, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("record repository not initialized")
	}

	rows, err := r.pool.Query(ctx, `SELECT vendor_id, order_id FROM records WHERE vendor_id = $1`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[domain.DedupKey]struct{})
	for rows.Next() {
		var key domain.DedupKey
		if scanErr := rows.Scan(&key.VendorID, &key.OrderID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan record key: %w", scanErr)
		}
		keys[key] = struct{}{}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate record keys: %w", rowsErr)
	}
	return keys, nil
}

func (r *recordRepository) Count(ctx context.Context, vendorID string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("record repository not initialized")
	}
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM records WHERE vendor_id = $1`, vendorID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func scanRecord(row pgx.Row) (domain.NormalizedRecord, error) {
	var (
		rec            domain.NormalizedRecord
		orderValue     pgtype.Float8
		termMonths     pgtype.Int4
		decisionDate   pgtype.Timestamptz
		decisionStatus string
		channel        string
		segment        string
		country        string
		region         string
		postalCode     string
		band           string
	)
	if err := row.Scan(
		&rec.VendorID,
		&rec.OrderID,
		&rec.OrderDate,
		&rec.ProductName,
		&rec.ProductSKU,
		&rec.ProductCategory,
		&orderValue,
		&rec.FinanceSelected,
		&rec.FinanceProvider,
		&termMonths,
		&decisionStatus,
		&decisionDate,
		&rec.CustomerID,
		&channel,
		&segment,
		&country,
		&region,
		&postalCode,
		&rec.Currency,
		&band,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NormalizedRecord{}, err
		}
		return domain.NormalizedRecord{}, fmt.Errorf("failed to scan record: %w", err)
	}

	if orderValue.Valid {
		value := orderValue.Float64
		rec.OrderValue = &value
	}
	if termMonths.Valid {
		months := int(termMonths.Int32)
		rec.FinanceTermMonths = &months
	}
	if decisionDate.Valid {
		ts := decisionDate.Time
		rec.FinanceDecisionDate = &ts
	}
	rec.FinanceDecisionStatus = domain.FinanceDecisionStatus(decisionStatus)
	rec.SalesChannel = domain.SalesChannel(channel)
	rec.CustomerSegment = domain.CustomerSegment(segment)
	rec.DealSizeBand = domain.DealSizeBand(band)
	if country != "" {
		rec.Geography = &domain.GeoLocation{Country: country, Region: region, PostalCode: postalCode}
	}
	return rec, nil
}
