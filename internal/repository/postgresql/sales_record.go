package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type salesRecordRepositoryImpl struct {
	db *database.DB
}

func NewSalesRecordRepository(db *database.DB) sales.SalesRecordRepository {
	return &salesRecordRepositoryImpl{db: db}
}

const salesRecordColumns = `
	id, company_name, company_name_key, phone, phone_key, salesperson_id, client_name,
	contract_status, contract_date, actual_sales, contract_client, commission_rate::text,
	created_at, updated_at`

func scanSalesRecord(row pgx.Row) (sales.SalesRecord, error) {
	var (
		rec  sales.SalesRecord
		rate *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.CompanyName,
		&rec.CompanyNameKey,
		&rec.Phone,
		&rec.PhoneKey,
		&rec.SalespersonID,
		&rec.ClientName,
		&rec.ContractStatus,
		&rec.ContractDate,
		&rec.ActualSales,
		&rec.ContractClient,
		&rate,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return sales.SalesRecord{}, err
	}
	if rec.CommissionRate, err = parseNullableDecimal(rate); err != nil {
		return sales.SalesRecord{}, fmt.Errorf("invalid commission_rate on sales record %d: %w", rec.ID, err)
	}
	return rec, nil
}

func parseNullableDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatNullableDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func collectSalesRecords(rows pgx.Rows) ([]sales.SalesRecord, error) {
	defer rows.Close()
	var records []sales.SalesRecord
	for rows.Next() {
		rec, err := scanSalesRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Create implements sales.SalesRecordRepository.
func (r *salesRecordRepositoryImpl) Create(ctx context.Context, record sales.SalesRecord) (sales.SalesRecord, error) {
	q := GetQuerier(ctx, r.db)

	created, err := scanSalesRecord(q.QueryRow(ctx, `
		INSERT INTO sales_records (
			company_name, company_name_key, phone, phone_key, salesperson_id, client_name,
			contract_status, contract_date, actual_sales, contract_client, commission_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric)
		RETURNING `+salesRecordColumns,
		record.CompanyName,
		record.CompanyNameKey,
		record.Phone,
		record.PhoneKey,
		record.SalespersonID,
		record.ClientName,
		record.ContractStatus,
		record.ContractDate,
		record.ActualSales,
		record.ContractClient,
		formatNullableDecimal(record.CommissionRate),
	))
	if err != nil {
		return sales.SalesRecord{}, fmt.Errorf("failed to create sales record: %w", err)
	}
	return created, nil
}

// GetByID implements sales.SalesRecordRepository.
func (r *salesRecordRepositoryImpl) GetByID(ctx context.Context, id int64) (sales.SalesRecord, error) {
	return r.get(ctx, `SELECT `+salesRecordColumns+` FROM sales_records WHERE id = $1`, id)
}

// GetByIDForUpdate implements sales.SalesRecordRepository.
func (r *salesRecordRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (sales.SalesRecord, error) {
	return r.get(ctx, `SELECT `+salesRecordColumns+` FROM sales_records WHERE id = $1 FOR UPDATE`, id)
}

func (r *salesRecordRepositoryImpl) get(ctx context.Context, query string, id int64) (sales.SalesRecord, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanSalesRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sales.SalesRecord{}, sales.ErrSalesRecordNotFound
		}
		return sales.SalesRecord{}, fmt.Errorf("failed to get sales record: %w", err)
	}
	return rec, nil
}

// Update implements sales.SalesRecordRepository.
func (r *salesRecordRepositoryImpl) Update(ctx context.Context, record sales.SalesRecord) (sales.SalesRecord, error) {
	q := GetQuerier(ctx, r.db)

	updated, err := scanSalesRecord(q.QueryRow(ctx, `
		UPDATE sales_records SET
			company_name = $2,
			company_name_key = $3,
			phone = $4,
			phone_key = $5,
			client_name = $6,
			contract_status = $7,
			contract_date = $8,
			actual_sales = $9,
			contract_client = $10,
			commission_rate = $11::numeric,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+salesRecordColumns,
		record.ID,
		record.CompanyName,
		record.CompanyNameKey,
		record.Phone,
		record.PhoneKey,
		record.ClientName,
		record.ContractStatus,
		record.ContractDate,
		record.ActualSales,
		record.ContractClient,
		formatNullableDecimal(record.CommissionRate),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sales.SalesRecord{}, sales.ErrSalesRecordNotFound
		}
		return sales.SalesRecord{}, fmt.Errorf("failed to update sales record: %w", err)
	}
	return updated, nil
}

// ListForStatement implements sales.SalesRecordRepository.
func (r *salesRecordRepositoryImpl) ListForStatement(ctx context.Context, salespersonID int64, from, to time.Time) ([]sales.SalesRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+salesRecordColumns+`
		FROM sales_records
		WHERE salesperson_id = $1
		  AND contract_status IN ('Y', 'terminated')
		  AND contract_date >= $2 AND contract_date < $3
		ORDER BY contract_date, id
	`, salespersonID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales records for statement: %w", err)
	}
	return collectSalesRecords(rows)
}

// FindDuplicates implements sales.SalesRecordRepository. Empty keys never match.
func (r *salesRecordRepositoryImpl) FindDuplicates(ctx context.Context, companyNameKey, phoneKey string, limit int) ([]sales.SalesRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+salesRecordColumns+`
		FROM sales_records
		WHERE ($1 <> '' AND company_name_key = $1)
		   OR ($2 <> '' AND phone_key = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, companyNameKey, phoneKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find duplicate sales records: %w", err)
	}
	return collectSalesRecords(rows)
}
