package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type commissionStatementRepositoryImpl struct {
	db *database.DB
}

func NewCommissionStatementRepository(db *database.DB) commission.StatementRepository {
	return &commissionStatementRepositoryImpl{db: db}
}

const statementColumns = `
	salesperson_id, year, month, is_confirmed, version,
	total_contract_commission, total_misc, total_commission, withholding_tax, net_pay,
	snapshot::text, COALESCE(snapshot_hash, ''), confirmed_at, confirmed_by, created_at, updated_at`

func scanStatementState(row pgx.Row) (commission.StatementState, error) {
	var (
		s        commission.StatementState
		snapshot *string
	)
	err := row.Scan(
		&s.Scope.SalespersonID,
		&s.Scope.Year,
		&s.Scope.Month,
		&s.IsConfirmed,
		&s.Version,
		&s.TotalContractCommission,
		&s.TotalMisc,
		&s.TotalCommission,
		&s.WithholdingTax,
		&s.NetPay,
		&snapshot,
		&s.SnapshotHash,
		&s.ConfirmedAt,
		&s.ConfirmedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return commission.StatementState{}, err
	}
	if snapshot != nil {
		s.Snapshot = []byte(*snapshot)
	}
	return s, nil
}

// Get implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) Get(ctx context.Context, scope commission.Scope) (commission.StatementState, error) {
	q := GetQuerier(ctx, r.db)

	state, err := scanStatementState(q.QueryRow(ctx, `
		SELECT `+statementColumns+`
		FROM commission_statements
		WHERE salesperson_id = $1 AND year = $2 AND month = $3
	`, scope.SalespersonID, scope.Year, scope.Month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return commission.StatementState{}, commission.ErrStatementNotFound
		}
		return commission.StatementState{}, fmt.Errorf("failed to get commission statement: %w", err)
	}
	return state, nil
}

// LockScope implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) LockScope(ctx context.Context, scope commission.Scope) (commission.StatementState, error) {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO commission_statements (salesperson_id, year, month)
		VALUES ($1, $2, $3)
		ON CONFLICT (salesperson_id, year, month) DO NOTHING
	`, scope.SalespersonID, scope.Year, scope.Month)
	if err != nil {
		return commission.StatementState{}, fmt.Errorf("failed to ensure commission statement row: %w", err)
	}

	state, err := scanStatementState(q.QueryRow(ctx, `
		SELECT `+statementColumns+`
		FROM commission_statements
		WHERE salesperson_id = $1 AND year = $2 AND month = $3
		FOR UPDATE
	`, scope.SalespersonID, scope.Year, scope.Month))
	if err != nil {
		return commission.StatementState{}, fmt.Errorf("failed to lock commission statement: %w", err)
	}
	return state, nil
}

// SaveConfirmed implements commission.StatementRepository. Only an unconfirmed row is updated.
func (r *commissionStatementRepositoryImpl) SaveConfirmed(ctx context.Context, state commission.StatementState) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE commission_statements SET
			is_confirmed = TRUE,
			total_contract_commission = $4,
			total_misc = $5,
			total_commission = $6,
			withholding_tax = $7,
			net_pay = $8,
			snapshot = $9::json,
			snapshot_hash = $10,
			confirmed_at = $11,
			confirmed_by = $12,
			updated_at = NOW()
		WHERE salesperson_id = $1 AND year = $2 AND month = $3 AND is_confirmed = FALSE
	`,
		state.Scope.SalespersonID, state.Scope.Year, state.Scope.Month,
		state.TotalContractCommission, state.TotalMisc, state.TotalCommission,
		state.WithholdingTax, state.NetPay,
		string(state.Snapshot), state.SnapshotHash, state.ConfirmedAt, state.ConfirmedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save confirmed statement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrStatementConfirmed
	}
	return nil
}

// Reopen implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) Reopen(ctx context.Context, scope commission.Scope) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE commission_statements SET
			is_confirmed = FALSE,
			version = version + 1,
			total_contract_commission = 0,
			total_misc = 0,
			total_commission = 0,
			withholding_tax = 0,
			net_pay = 0,
			snapshot = NULL,
			snapshot_hash = NULL,
			confirmed_at = NULL,
			confirmed_by = NULL,
			updated_at = NOW()
		WHERE salesperson_id = $1 AND year = $2 AND month = $3 AND is_confirmed = TRUE
	`, scope.SalespersonID, scope.Year, scope.Month)
	if err != nil {
		return fmt.Errorf("failed to reopen statement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return commission.ErrStatementNotConfirmed
	}
	return nil
}

// ListConfirmedByPeriod implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) ListConfirmedByPeriod(ctx context.Context, year, month string) ([]commission.StatementState, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+statementColumns+`
		FROM commission_statements
		WHERE year = $1 AND month = $2 AND is_confirmed = TRUE
		ORDER BY salesperson_id
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed statements: %w", err)
	}
	defer rows.Close()

	var states []commission.StatementState
	for rows.Next() {
		s, err := scanStatementState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission statement: %w", err)
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// AppendEvent implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) AppendEvent(ctx context.Context, event commission.StatementEvent) error {
	q := GetQuerier(ctx, r.db)

	var hash *string
	if event.SnapshotHash != "" {
		hash = &event.SnapshotHash
	}
	_, err := q.Exec(ctx, `
		INSERT INTO commission_statement_events (
			id, salesperson_id, year, month, action, actor_id, reason, total_commission, snapshot_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		event.ID, event.Scope.SalespersonID, event.Scope.Year, event.Scope.Month,
		event.Action, event.ActorID, event.Reason, event.TotalCommission, hash, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append statement event: %w", err)
	}
	return nil
}

// ListEvents implements commission.StatementRepository.
func (r *commissionStatementRepositoryImpl) ListEvents(ctx context.Context, scope commission.Scope) ([]commission.StatementEvent, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id::text, salesperson_id, year, month, action, actor_id, reason,
		       total_commission, COALESCE(snapshot_hash, ''), created_at
		FROM commission_statement_events
		WHERE salesperson_id = $1 AND year = $2 AND month = $3
		ORDER BY created_at, id
	`, scope.SalespersonID, scope.Year, scope.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to list statement events: %w", err)
	}
	defer rows.Close()

	var events []commission.StatementEvent
	for rows.Next() {
		var e commission.StatementEvent
		if err := rows.Scan(
			&e.ID,
			&e.Scope.SalespersonID,
			&e.Scope.Year,
			&e.Scope.Month,
			&e.Action,
			&e.ActorID,
			&e.Reason,
			&e.TotalCommission,
			&e.SnapshotHash,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan statement event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
