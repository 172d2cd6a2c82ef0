package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionServiceImpl struct {
	tx database.Transactor
	commission.StatementRepository
	commission.MiscCommissionRepository
	sales.SalesRecordRepository
	sales.SalesClientRepository
	user.UserRepository
	gate        commission.Gate
	defaultRate decimal.Decimal
	logger      *slog.Logger
	now         func() time.Time
}

func NewCommissionService(
	tx database.Transactor,
	statementRepository commission.StatementRepository,
	miscRepository commission.MiscCommissionRepository,
	salesRecordRepository sales.SalesRecordRepository,
	salesClientRepository sales.SalesClientRepository,
	userRepository user.UserRepository,
	gate commission.Gate,
	defaultRate decimal.Decimal,
	logger *slog.Logger,
) *CommissionServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommissionServiceImpl{
		tx:                       tx,
		StatementRepository:      statementRepository,
		MiscCommissionRepository: miscRepository,
		SalesRecordRepository:    salesRecordRepository,
		SalesClientRepository:    salesClientRepository,
		UserRepository:           userRepository,
		gate:                     gate,
		defaultRate:              defaultRate,
		logger:                   logger,
		now:                      time.Now,
	}
}

var _ commission.CommissionService = (*CommissionServiceImpl)(nil)

// ========== STATEMENTS ==========

// GetStatement returns the frozen snapshot for a confirmed scope, otherwise a fresh computation.
func (s *CommissionServiceImpl) GetStatement(ctx context.Context, scope commission.Scope) (commission.StatementResponse, error) {
	stmt, err := s.loadStatement(ctx, scope)
	if err != nil {
		return commission.StatementResponse{}, err
	}
	return commission.ToStatementResponse(stmt), nil
}

func (s *CommissionServiceImpl) loadStatement(ctx context.Context, scope commission.Scope) (commission.Statement, error) {
	start := time.Now()

	state, err := s.StatementRepository.Get(ctx, scope)
	if err != nil && !errors.Is(err, commission.ErrStatementNotFound) {
		metrics.ObserveStatementCompute("state", metrics.ResultError, time.Since(start))
		return commission.Statement{}, fmt.Errorf("failed to get statement state: %w", err)
	}

	if err == nil && state.IsConfirmed {
		stmt, err := DecodeSnapshot(state)
		if err != nil {
			metrics.ObserveStatementCompute("snapshot", metrics.ResultError, time.Since(start))
			return commission.Statement{}, err
		}
		metrics.ObserveStatementCompute("snapshot", metrics.ResultSuccess, time.Since(start))
		return stmt, nil
	}

	stmt, err := s.compute(ctx, scope)
	if err != nil {
		metrics.ObserveStatementCompute("computed", metrics.ResultError, time.Since(start))
		return commission.Statement{}, err
	}
	stmt.Version = state.Version
	metrics.ObserveStatementCompute("computed", metrics.ResultSuccess, time.Since(start))
	return stmt, nil
}

// compute aggregates the live rows of a scope. Unknown salespeople yield an all-zero statement.
func (s *CommissionServiceImpl) compute(ctx context.Context, scope commission.Scope) (commission.Statement, error) {
	from, to, err := sales.MonthRange(scope.Year, scope.Month)
	if err != nil {
		return commission.Statement{}, err
	}

	records, err := s.SalesRecordRepository.ListForStatement(ctx, scope.SalespersonID, from, to)
	if err != nil {
		return commission.Statement{}, fmt.Errorf("failed to list sales records: %w", err)
	}
	misc, err := s.MiscCommissionRepository.ListByScope(ctx, scope)
	if err != nil {
		return commission.Statement{}, fmt.Errorf("failed to list misc commissions: %w", err)
	}
	clients, err := s.SalesClientRepository.List(ctx)
	if err != nil {
		return commission.Statement{}, fmt.Errorf("failed to list sales clients: %w", err)
	}

	calc := NewLineCalculator(NewRateResolver(s.defaultRate, clients))
	return Aggregate(scope, calc, records, misc), nil
}

// GetMonthlySummary lists every salesperson's statement for one month.
func (s *CommissionServiceImpl) GetMonthlySummary(ctx context.Context, year, month string) (commission.MonthlySummaryResponse, error) {
	var errs validator.ValidationErrors
	if !validator.IsValidYear(year) {
		errs.Add("year", "must be a 4-digit year")
	}
	normMonth, ok := validator.NormalizeMonth(month)
	if !ok {
		errs.Add("month", "must be between 01 and 12")
	}
	if err := errs.OrNil(); err != nil {
		return commission.MonthlySummaryResponse{}, err
	}

	salespeople, err := s.UserRepository.ListSalespeople(ctx)
	if err != nil {
		return commission.MonthlySummaryResponse{}, fmt.Errorf("failed to list salespeople: %w", err)
	}

	resp := commission.MonthlySummaryResponse{
		Year:       year,
		Month:      normMonth,
		Statements: make([]commission.StatementSummaryResponse, 0, len(salespeople)),
	}
	seen := make(map[int64]bool, len(salespeople))
	for _, sp := range salespeople {
		stmt, err := s.loadStatement(ctx, commission.Scope{SalespersonID: sp.ID, Year: year, Month: normMonth})
		if err != nil {
			return commission.MonthlySummaryResponse{}, fmt.Errorf("failed to load statement for salesperson %d: %w", sp.ID, err)
		}
		seen[sp.ID] = true
		resp.Add(sp.Name, stmt)
	}

	// Confirmed statements stay on the summary after their salesperson is deactivated.
	confirmed, err := s.StatementRepository.ListConfirmedByPeriod(ctx, year, normMonth)
	if err != nil {
		return commission.MonthlySummaryResponse{}, fmt.Errorf("failed to list confirmed statements: %w", err)
	}
	sort.Slice(confirmed, func(i, j int) bool {
		return confirmed[i].Scope.SalespersonID < confirmed[j].Scope.SalespersonID
	})
	for _, state := range confirmed {
		if seen[state.Scope.SalespersonID] {
			continue
		}
		stmt, err := DecodeSnapshot(state)
		if err != nil {
			return commission.MonthlySummaryResponse{}, err
		}
		var name string
		if sp, err := s.UserRepository.GetByID(ctx, state.Scope.SalespersonID); err == nil {
			name = sp.Name
		} else if !errors.Is(err, user.ErrUserNotFound) {
			return commission.MonthlySummaryResponse{}, fmt.Errorf("failed to get salesperson: %w", err)
		}
		resp.Add(name, stmt)
	}
	return resp, nil
}

// ConfirmStatement freezes a scope. Totals are recomputed under the scope lock; a caller total
// that disagrees is rejected. Repeating a confirm with the same or no total is a no-op.
func (s *CommissionServiceImpl) ConfirmStatement(ctx context.Context, req commission.ConfirmStatementRequest) (commission.StatementResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.StatementResponse{}, err
	}
	scope := req.Scope()

	var (
		result     commission.Statement
		idempotent bool
	)
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		state, err := s.StatementRepository.LockScope(txCtx, scope)
		if err != nil {
			return fmt.Errorf("failed to lock statement scope: %w", err)
		}

		if state.IsConfirmed {
			if req.TotalCommission != nil && *req.TotalCommission != state.TotalCommission {
				return commission.ErrStatementConfirmed
			}
			stmt, err := DecodeSnapshot(state)
			if err != nil {
				return err
			}
			result, idempotent = stmt, true
			return nil
		}

		stmt, err := s.compute(txCtx, scope)
		if err != nil {
			return err
		}
		if req.TotalCommission != nil && *req.TotalCommission != stmt.TotalCommission {
			s.logger.WarnContext(txCtx, "confirm rejected: submitted total differs from computed",
				slog.String("scope", scope.String()),
				slog.Int64("submitted", *req.TotalCommission),
				slog.Int64("computed", stmt.TotalCommission),
			)
			return fmt.Errorf("%w: submitted %d, computed %d", commission.ErrTotalsMismatch, *req.TotalCommission, stmt.TotalCommission)
		}
		s.logDetailDrift(txCtx, scope, req.Details, stmt.Lines)

		data, hash, err := EncodeSnapshot(stmt)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		confirmedBy := req.ConfirmedBy
		state.IsConfirmed = true
		state.TotalContractCommission = stmt.TotalContractCommission
		state.TotalMisc = stmt.TotalMisc
		state.TotalCommission = stmt.TotalCommission
		state.WithholdingTax = stmt.WithholdingTax
		state.NetPay = stmt.NetPay
		state.Snapshot = data
		state.SnapshotHash = hash
		state.ConfirmedAt = &now
		state.ConfirmedBy = &confirmedBy
		if err := s.StatementRepository.SaveConfirmed(txCtx, state); err != nil {
			return fmt.Errorf("failed to save confirmed statement: %w", err)
		}

		if err := s.appendEvent(txCtx, scope, commission.EventActionConfirmed, confirmedBy, nil, stmt.TotalCommission, hash, now); err != nil {
			return err
		}

		stmt.IsConfirmed = true
		stmt.ConfirmedAt = &now
		stmt.ConfirmedBy = &confirmedBy
		stmt.SnapshotHash = hash
		stmt.Version = state.Version
		result = stmt
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, commission.ErrStatementConfirmed):
			metrics.IncStatementConfirm(metrics.ConfirmResultConflict)
		case errors.Is(err, commission.ErrTotalsMismatch):
			metrics.IncStatementConfirm(metrics.ConfirmResultMismatch)
		default:
			metrics.IncStatementConfirm(metrics.ResultError)
		}
		return commission.StatementResponse{}, err
	}

	if idempotent {
		metrics.IncStatementConfirm(metrics.ConfirmResultIdempotent)
	} else {
		metrics.IncStatementConfirm(metrics.ConfirmResultConfirmed)
		s.logger.InfoContext(ctx, "commission statement confirmed",
			slog.String("scope", scope.String()),
			slog.Int64("total_commission", result.TotalCommission),
			slog.Int64("confirmed_by", req.ConfirmedBy),
			slog.String("snapshot_hash", result.SnapshotHash),
		)
	}
	return commission.ToStatementResponse(result), nil
}

// logDetailDrift reports lines the client displayed differently from the recomputation.
func (s *CommissionServiceImpl) logDetailDrift(ctx context.Context, scope commission.Scope, details []commission.ConfirmDetail, lines []commission.Line) {
	if len(details) == 0 {
		return
	}
	computed := make(map[int64]int64, len(lines))
	for _, l := range lines {
		computed[l.SalesRecordID] = l.Amount
	}
	drift := 0
	for _, d := range details {
		if amount, ok := computed[d.SalesRecordID]; !ok || amount != d.Amount {
			drift++
		}
	}
	if drift > 0 || len(details) != len(lines) {
		s.logger.InfoContext(ctx, "confirm details differ from computed lines",
			slog.String("scope", scope.String()),
			slog.Int("submitted_lines", len(details)),
			slog.Int("computed_lines", len(lines)),
			slog.Int("differing_lines", drift),
		)
	}
}

// ReopenStatement is the owner-only override that unfreezes a confirmed scope.
func (s *CommissionServiceImpl) ReopenStatement(ctx context.Context, req commission.ReopenStatementRequest) (commission.StatementResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.StatementResponse{}, err
	}
	scope := req.Scope()

	var previous commission.StatementState
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		state, err := s.StatementRepository.LockScope(txCtx, scope)
		if err != nil {
			return fmt.Errorf("failed to lock statement scope: %w", err)
		}
		if !state.IsConfirmed {
			return commission.ErrStatementNotConfirmed
		}
		previous = state

		if err := s.StatementRepository.Reopen(txCtx, scope); err != nil {
			return fmt.Errorf("failed to reopen statement: %w", err)
		}
		reason := req.Reason
		return s.appendEvent(txCtx, scope, commission.EventActionReopened, req.ReopenedBy, &reason, state.TotalCommission, state.SnapshotHash, s.now().UTC())
	})
	if err != nil {
		return commission.StatementResponse{}, err
	}

	metrics.IncStatementReopen()
	s.logger.WarnContext(ctx, "commission statement reopened",
		slog.String("scope", scope.String()),
		slog.Int64("reopened_by", req.ReopenedBy),
		slog.String("reason", req.Reason),
		slog.Int64("previous_total_commission", previous.TotalCommission),
		slog.String("previous_snapshot_hash", previous.SnapshotHash),
	)

	return s.GetStatement(ctx, scope)
}

func (s *CommissionServiceImpl) appendEvent(ctx context.Context, scope commission.Scope, action commission.EventAction, actorID int64, reason *string, total int64, hash string, at time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}
	var actor *int64
	if actorID > 0 {
		actor = &actorID
	}
	event := commission.StatementEvent{
		ID:              id.String(),
		Scope:           scope,
		Action:          action,
		ActorID:         actor,
		Reason:          reason,
		TotalCommission: total,
		SnapshotHash:    hash,
		CreatedAt:       at,
	}
	if err := s.StatementRepository.AppendEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to append statement event: %w", err)
	}
	return nil
}

func (s *CommissionServiceImpl) ListEvents(ctx context.Context, scope commission.Scope) ([]commission.StatementEventResponse, error) {
	events, err := s.StatementRepository.ListEvents(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list statement events: %w", err)
	}
	resp := make([]commission.StatementEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, commission.StatementEventResponse{
			ID:              e.ID,
			Action:          string(e.Action),
			ActorID:         e.ActorID,
			Reason:          e.Reason,
			TotalCommission: e.TotalCommission,
			SnapshotHash:    e.SnapshotHash,
			CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ExportStatement renders the same statement GetStatement returns as an XLSX workbook.
func (s *CommissionServiceImpl) ExportStatement(ctx context.Context, scope commission.Scope) (commission.ExportFile, error) {
	stmt, err := s.loadStatement(ctx, scope)
	if err != nil {
		metrics.IncStatementExport(metrics.ResultError)
		return commission.ExportFile{}, err
	}

	name := ""
	if sp, err := s.UserRepository.GetByID(ctx, scope.SalespersonID); err == nil {
		name = sp.Name
	} else if !errors.Is(err, user.ErrUserNotFound) {
		metrics.IncStatementExport(metrics.ResultError)
		return commission.ExportFile{}, fmt.Errorf("failed to get salesperson: %w", err)
	}

	content, err := export.BuildStatementXLSX(stmt, name)
	if err != nil {
		metrics.IncStatementExport(metrics.ResultError)
		return commission.ExportFile{}, fmt.Errorf("failed to build statement workbook: %w", err)
	}
	metrics.IncStatementExport(metrics.ResultSuccess)

	return commission.ExportFile{
		Filename:    export.StatementFilename(scope),
		ContentType: export.ContentTypeXLSX,
		Content:     content,
	}, nil
}

// ========== MISC COMMISSIONS ==========

func (s *CommissionServiceImpl) ListMiscCommissions(ctx context.Context, scope commission.Scope) ([]commission.MiscCommissionResponse, error) {
	entries, err := s.MiscCommissionRepository.ListByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list misc commissions: %w", err)
	}
	resp := make([]commission.MiscCommissionResponse, 0, len(entries))
	for _, m := range entries {
		resp = append(resp, commission.ToMiscResponse(m))
	}
	return resp, nil
}

func (s *CommissionServiceImpl) CreateMiscCommission(ctx context.Context, req commission.CreateMiscCommissionRequest) (commission.MiscCommissionResponse, error) {
	if err := req.Validate(); err != nil {
		return commission.MiscCommissionResponse{}, err
	}

	var created commission.MiscCommission
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.gate.EnsureOpen(txCtx, req.Scope(), commission.OperationMiscCreate); err != nil {
			return err
		}

		entry := commission.MiscCommission{
			SalespersonID: req.SalespersonID,
			Year:          req.Year,
			Month:         req.Month,
			Description:   req.Description,
			Amount:        *req.Amount,
		}
		if req.CreatedBy > 0 {
			createdBy := req.CreatedBy
			entry.CreatedBy = &createdBy
		}

		var err error
		created, err = s.MiscCommissionRepository.Create(txCtx, entry)
		if err != nil {
			return fmt.Errorf("failed to create misc commission: %w", err)
		}
		return nil
	})
	if err != nil {
		return commission.MiscCommissionResponse{}, err
	}

	return commission.ToMiscResponse(created), nil
}

func (s *CommissionServiceImpl) DeleteMiscCommission(ctx context.Context, id int64) error {
	return s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		entry, err := s.MiscCommissionRepository.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.gate.EnsureOpen(txCtx, entry.Scope(), commission.OperationMiscDelete); err != nil {
			return err
		}
		if err := s.MiscCommissionRepository.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete misc commission: %w", err)
		}
		return nil
	})
}
