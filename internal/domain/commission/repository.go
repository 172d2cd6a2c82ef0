package commission

import "context"

type MiscCommissionRepository interface {
	Create(ctx context.Context, misc MiscCommission) (MiscCommission, error)
	GetByID(ctx context.Context, id int64) (MiscCommission, error)
	Delete(ctx context.Context, id int64) error
	// ListByScope orders by created_at, id.
	ListByScope(ctx context.Context, scope Scope) ([]MiscCommission, error)
}

type StatementRepository interface {
	// Get returns ErrStatementNotFound when the scope has never been locked or confirmed.
	Get(ctx context.Context, scope Scope) (StatementState, error)
	// LockScope creates the scope row if missing and row-locks it until the transaction ends.
	LockScope(ctx context.Context, scope Scope) (StatementState, error)
	SaveConfirmed(ctx context.Context, state StatementState) error
	Reopen(ctx context.Context, scope Scope) error
	ListConfirmedByPeriod(ctx context.Context, year, month string) ([]StatementState, error)

	AppendEvent(ctx context.Context, event StatementEvent) error
	ListEvents(ctx context.Context, scope Scope) ([]StatementEvent, error)
}
