package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type miscCommissionRepositoryImpl struct {
	db *database.DB
}

func NewMiscCommissionRepository(db *database.DB) commission.MiscCommissionRepository {
	return &miscCommissionRepositoryImpl{db: db}
}

const miscCommissionColumns = `id, salesperson_id, year, month, description, amount, created_by, created_at`

func scanMiscCommission(row pgx.Row) (commission.MiscCommission, error) {
	var m commission.MiscCommission
	err := row.Scan(
		&m.ID,
		&m.SalespersonID,
		&m.Year,
		&m.Month,
		&m.Description,
		&m.Amount,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	return m, err
}

// Create implements commission.MiscCommissionRepository.
func (r *miscCommissionRepositoryImpl) Create(ctx context.Context, misc commission.MiscCommission) (commission.MiscCommission, error) {
	q := GetQuerier(ctx, r.db)

	created, err := scanMiscCommission(q.QueryRow(ctx, `
		INSERT INTO misc_commissions (salesperson_id, year, month, description, amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+miscCommissionColumns,
		misc.SalespersonID, misc.Year, misc.Month, misc.Description, misc.Amount, misc.CreatedBy,
	))
	if err != nil {
		return commission.MiscCommission{}, fmt.Errorf("failed to create misc commission: %w", err)
	}
	return created, nil
}

// GetByID implements commission.MiscCommissionRepository.
func (r *miscCommissionRepositoryImpl) GetByID(ctx context.Context, id int64) (commission.MiscCommission, error) {
	q := GetQuerier(ctx, r.db)

	m, err := scanMiscCommission(q.QueryRow(ctx, `SELECT `+miscCommissionColumns+` FROM misc_commissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return commission.MiscCommission{}, commission.ErrMiscCommissionNotFound
		}
		return commission.MiscCommission{}, fmt.Errorf("failed to get misc commission: %w", err)
	}
	return m, nil
}

// Delete implements commission.MiscCommissionRepository.
func (r *miscCommissionRepositoryImpl) Delete(ctx context.Context, id int64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM misc_commissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete misc commission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrMiscCommissionNotFound
	}
	return nil
}

// ListByScope implements commission.MiscCommissionRepository.
func (r *miscCommissionRepositoryImpl) ListByScope(ctx context.Context, scope commission.Scope) ([]commission.MiscCommission, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+miscCommissionColumns+`
		FROM misc_commissions
		WHERE salesperson_id = $1 AND year = $2 AND month = $3
		ORDER BY created_at, id
	`, scope.SalespersonID, scope.Year, scope.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to list misc commissions: %w", err)
	}
	defer rows.Close()

	var entries []commission.MiscCommission
	for rows.Next() {
		m, err := scanMiscCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan misc commission: %w", err)
		}
		entries = append(entries, m)
	}
	return entries, rows.Err()
}
