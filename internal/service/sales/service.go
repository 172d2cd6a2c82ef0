package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/dedup"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
)

// duplicateCandidateLimit caps how many matches a duplicate check returns.
const duplicateCandidateLimit = 10

type SalesServiceImpl struct {
	tx database.Transactor
	sales.SalesRecordRepository
	sales.SalesClientRepository
	user.UserRepository
	gate       commission.Gate
	normalizer dedup.Normalizer
	logger     *slog.Logger
}

func NewSalesService(
	tx database.Transactor,
	recordRepository sales.SalesRecordRepository,
	clientRepository sales.SalesClientRepository,
	userRepository user.UserRepository,
	gate commission.Gate,
	normalizer dedup.Normalizer,
	logger *slog.Logger,
) *SalesServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesServiceImpl{
		tx:                    tx,
		SalesRecordRepository: recordRepository,
		SalesClientRepository: clientRepository,
		UserRepository:        userRepository,
		gate:                  gate,
		normalizer:            normalizer,
		logger:                logger,
	}
}

var _ sales.SalesService = (*SalesServiceImpl)(nil)

// ========== SALES RECORDS ==========

func (s *SalesServiceImpl) GetRecord(ctx context.Context, id int64) (sales.SalesRecordResponse, error) {
	record, err := s.SalesRecordRepository.GetByID(ctx, id)
	if err != nil {
		return sales.SalesRecordResponse{}, err
	}
	return sales.ToRecordResponse(record), nil
}

// CreateRecord registers a pending lead. Matching leads block creation unless req.Force is set.
func (s *SalesServiceImpl) CreateRecord(ctx context.Context, req sales.CreateSalesRecordRequest) (sales.SalesRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return sales.SalesRecordResponse{}, err
	}

	sp, err := s.UserRepository.GetByID(ctx, req.SalespersonID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return sales.SalesRecordResponse{}, sales.ErrSalespersonNotFound
		}
		return sales.SalesRecordResponse{}, fmt.Errorf("failed to get salesperson: %w", err)
	}
	if !sp.IsActive || !sp.IsSalesperson() {
		return sales.SalesRecordResponse{}, sales.ErrSalespersonNotFound
	}

	companyKey, phoneKey := s.normalizer.Keys(req.CompanyName, req.Phone)

	candidates, err := s.SalesRecordRepository.FindDuplicates(ctx, companyKey, phoneKey, duplicateCandidateLimit)
	if err != nil {
		return sales.SalesRecordResponse{}, fmt.Errorf("failed to check duplicates: %w", err)
	}
	if len(candidates) > 0 {
		if !req.Force {
			metrics.IncDuplicateCheck("blocked")
			return sales.SalesRecordResponse{}, &sales.DuplicateError{Candidates: sales.ToRecordResponses(candidates)}
		}
		metrics.IncDuplicateCheck("forced")
		s.logger.InfoContext(ctx, "lead registered despite duplicate candidates",
			slog.String("company_name", req.CompanyName),
			slog.Int("candidates", len(candidates)),
		)
	} else {
		metrics.IncDuplicateCheck("clean")
	}

	record := sales.SalesRecord{
		CompanyName:    strings.TrimSpace(req.CompanyName),
		SalespersonID:  req.SalespersonID,
		ContractStatus: sales.ContractStatusPending,
		CompanyNameKey: companyKey,
		PhoneKey:       phoneKey,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		record.Phone = &phone
	}
	if client := strings.TrimSpace(req.ClientName); client != "" {
		record.ClientName = &client
	}

	created, err := s.SalesRecordRepository.Create(ctx, record)
	if err != nil {
		return sales.SalesRecordResponse{}, fmt.Errorf("failed to create sales record: %w", err)
	}
	return sales.ToRecordResponse(created), nil
}

// UpdateRecord applies a partial edit. Writing commission_rate or moving the record to another
// statement period passes the confirmation gate for the record's scope, before and after the edit,
// inside the same transaction.
func (s *SalesServiceImpl) UpdateRecord(ctx context.Context, req sales.UpdateSalesRecordRequest) (sales.SalesRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return sales.SalesRecordResponse{}, err
	}

	var updated sales.SalesRecord
	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		record, err := s.SalesRecordRepository.GetByIDForUpdate(txCtx, req.ID)
		if err != nil {
			return err
		}
		before := record

		if err := applyUpdate(&record, req); err != nil {
			return err
		}

		operation := ""
		switch {
		case req.TouchesCommissionRate():
			operation = commission.OperationRateEdit
		case periodChanged(before, record):
			operation = commission.OperationPeriodEdit
		}
		if operation != "" {
			for _, scope := range affectedScopes(before, record) {
				if err := s.gate.EnsureOpen(txCtx, scope, operation); err != nil {
					return err
				}
			}
		}

		record.CompanyNameKey, record.PhoneKey = s.normalizer.Keys(record.CompanyName, deref(record.Phone))

		updated, err = s.SalesRecordRepository.Update(txCtx, record)
		if err != nil {
			return fmt.Errorf("failed to update sales record: %w", err)
		}
		return nil
	})
	if err != nil {
		return sales.SalesRecordResponse{}, err
	}

	return sales.ToRecordResponse(updated), nil
}

func applyUpdate(record *sales.SalesRecord, req sales.UpdateSalesRecordRequest) error {
	if req.CompanyName != nil {
		record.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Phone != nil {
		record.Phone = optionalString(*req.Phone)
	}
	if req.ClientName != nil {
		record.ClientName = optionalString(*req.ClientName)
	}
	if req.ContractStatus != nil {
		next, _ := sales.ParseContractStatus(*req.ContractStatus)
		if !record.ContractStatus.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", sales.ErrInvalidStatusTransition, record.ContractStatus, next)
		}
		record.ContractStatus = next
	}
	if req.ContractDate != nil {
		if *req.ContractDate == "" {
			record.ContractDate = nil
		} else {
			date, _ := validator.IsValidDate(*req.ContractDate)
			record.ContractDate = &date
		}
	}
	if req.ActualSales.Set {
		record.ActualSales = req.ActualSales.Ptr()
	}
	if req.ContractClient.Set {
		record.ContractClient = req.ContractClient.Ptr()
	}
	if req.CommissionRate != nil {
		if req.CommissionRate.IsZero() {
			record.CommissionRate = nil
		} else {
			rate := *req.CommissionRate
			record.CommissionRate = &rate
		}
	}
	return nil
}

// periodChanged reports whether an edit moves the record to a different statement scope.
func periodChanged(before, after sales.SalesRecord) bool {
	y1, m1, ok1 := before.Period()
	y2, m2, ok2 := after.Period()
	return ok1 != ok2 || y1 != y2 || m1 != m2 || before.SalespersonID != after.SalespersonID
}

// affectedScopes lists the distinct statement scopes a record belongs to before and after an edit.
func affectedScopes(before, after sales.SalesRecord) []commission.Scope {
	var scopes []commission.Scope
	for _, r := range []sales.SalesRecord{before, after} {
		year, month, ok := r.Period()
		if !ok {
			continue
		}
		scope := commission.Scope{SalespersonID: r.SalespersonID, Year: year, Month: month}
		if len(scopes) == 1 && scopes[0] == scope {
			continue
		}
		scopes = append(scopes, scope)
	}
	return scopes
}

func (s *SalesServiceImpl) FindDuplicates(ctx context.Context, req sales.DuplicateCheckRequest) ([]sales.SalesRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var companyKey, phoneKey string
	if !validator.IsEmpty(req.CompanyName) {
		companyKey = dedup.CompanyKey(req.CompanyName)
	}
	if !validator.IsEmpty(req.Phone) {
		phoneKey = dedup.PhoneKey(req.Phone, s.normalizer.Region)
	}

	candidates, err := s.SalesRecordRepository.FindDuplicates(ctx, companyKey, phoneKey, duplicateCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates: %w", err)
	}
	return sales.ToRecordResponses(candidates), nil
}

// ========== SALES CLIENTS ==========

func (s *SalesServiceImpl) ListClients(ctx context.Context) ([]sales.SalesClientResponse, error) {
	clients, err := s.SalesClientRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales clients: %w", err)
	}
	resp := make([]sales.SalesClientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, sales.SalesClientResponse{ID: c.ID, Name: c.Name, CommissionRate: c.CommissionRate})
	}
	return resp, nil
}

// UpsertClient sets a client's default rate. Confirmed statements keep their snapshot rates.
func (s *SalesServiceImpl) UpsertClient(ctx context.Context, req sales.UpsertSalesClientRequest) (sales.SalesClientResponse, error) {
	if err := req.Validate(); err != nil {
		return sales.SalesClientResponse{}, err
	}

	client, err := s.SalesClientRepository.Upsert(ctx, sales.SalesClient{
		Name:           req.Name,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		return sales.SalesClientResponse{}, fmt.Errorf("failed to upsert sales client: %w", err)
	}

	s.logger.InfoContext(ctx, "sales client rate updated",
		slog.String("client", client.Name),
		slog.String("commission_rate", client.CommissionRate.String()),
	)
	return sales.SalesClientResponse{ID: client.ID, Name: client.Name, CommissionRate: client.CommissionRate}, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
