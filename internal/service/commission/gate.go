package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/metrics"
)

// ConfirmationGate locks the scope row and refuses writes to confirmed scopes.
type ConfirmationGate struct {
	statements commission.StatementRepository
	logger     *slog.Logger
}

func NewConfirmationGate(statements commission.StatementRepository, logger *slog.Logger) *ConfirmationGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmationGate{statements: statements, logger: logger}
}

// EnsureOpen must run inside the caller's write transaction; the row lock is held until it ends.
func (g *ConfirmationGate) EnsureOpen(ctx context.Context, scope commission.Scope, operation string) error {
	state, err := g.statements.LockScope(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to lock statement scope %s: %w", scope, err)
	}
	if state.IsConfirmed {
		metrics.IncRejectedEdit(operation)
		g.logger.WarnContext(ctx, "write rejected on confirmed statement",
			slog.String("operation", operation),
			slog.Int64("salesperson_id", scope.SalespersonID),
			slog.String("year", scope.Year),
			slog.String("month", scope.Month),
		)
		return commission.ErrStatementConfirmed
	}
	return nil
}
