package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CommissionHandler interface {
	GetDetails(w http.ResponseWriter, r *http.Request)

	// Statements
	MonthlySummary(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Confirm(w http.ResponseWriter, r *http.Request)
	Reopen(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)

	// Misc adjustments
	ListMisc(w http.ResponseWriter, r *http.Request)
	CreateMisc(w http.ResponseWriter, r *http.Request)
	DeleteMisc(w http.ResponseWriter, r *http.Request)
}

type CommissionHandlerImpl struct {
	commissionService commission.CommissionService
}

func NewCommissionHandler(commissionService commission.CommissionService) CommissionHandler {
	return &CommissionHandlerImpl{
		commissionService: commissionService,
	}
}

// scopeFromQuery reads salesperson_id/year/month. Salespeople may omit salesperson_id and
// are limited to their own scope.
func scopeFromQuery(r *http.Request) (commission.Scope, error) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		return commission.Scope{}, err
	}

	q := r.URL.Query()
	salespersonID := q.Get("salesperson_id")
	if salespersonID == "" && !caller.IsAdmin() {
		salespersonID = strconv.FormatInt(caller.UserID, 10)
	}

	scope, err := commission.ParseScope(salespersonID, q.Get("year"), q.Get("month"))
	if err != nil {
		return commission.Scope{}, err
	}
	if !caller.IsAdmin() && scope.SalespersonID != caller.UserID {
		return commission.Scope{}, commission.ErrScopeAccessDenied
	}
	return scope, nil
}

// GetDetails implements CommissionHandler.
func (h *CommissionHandlerImpl) GetDetails(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	statement, err := h.commissionService.GetStatement(r.Context(), scope)
	if err != nil {
		slog.Error("Failed to get commission details", "scope", scope.String(), "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, statement)
}

// ========== STATEMENTS ==========

// MonthlySummary implements CommissionHandler.
func (h *CommissionHandlerImpl) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.commissionService.GetMonthlySummary(r.Context(), q.Get("year"), q.Get("month"))
	if err != nil {
		slog.Error("Failed to get monthly summary", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// Export implements CommissionHandler.
func (h *CommissionHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	file, err := h.commissionService.ExportStatement(r.Context(), scope)
	if err != nil {
		slog.Error("Failed to export statement", "scope", scope.String(), "error", err)
		response.HandleError(w, err)
		return
	}

	response.File(w, file.Filename, file.ContentType, file.Content)
}

// Confirm implements CommissionHandler.
func (h *CommissionHandlerImpl) Confirm(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req commission.ConfirmStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Confirm decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ConfirmedBy = caller.UserID

	statement, err := h.commissionService.ConfirmStatement(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to confirm statement", "salesperson_id", req.SalespersonID, "year", req.Year, "month", req.Month, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Commission statement confirmed", statement)
}

// Reopen implements CommissionHandler.
func (h *CommissionHandlerImpl) Reopen(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req commission.ReopenStatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reopen decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ReopenedBy = caller.UserID

	statement, err := h.commissionService.ReopenStatement(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to reopen statement", "salesperson_id", req.SalespersonID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Commission statement reopened", statement)
}

// Events implements CommissionHandler.
func (h *CommissionHandlerImpl) Events(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	events, err := h.commissionService.ListEvents(r.Context(), scope)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, events)
}

// ========== MISC COMMISSIONS ==========

// ListMisc implements CommissionHandler.
func (h *CommissionHandlerImpl) ListMisc(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items, err := h.commissionService.ListMiscCommissions(r.Context(), scope)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, items)
}

// CreateMisc implements CommissionHandler.
func (h *CommissionHandlerImpl) CreateMisc(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req commission.CreateMiscCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateMisc decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CreatedBy = caller.UserID

	item, err := h.commissionService.CreateMiscCommission(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to create misc commission", "salesperson_id", req.SalespersonID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Misc commission created", item)
}

// DeleteMisc implements CommissionHandler.
func (h *CommissionHandlerImpl) DeleteMisc(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid misc commission ID", nil)
		return
	}

	if err := h.commissionService.DeleteMiscCommission(r.Context(), id); err != nil {
		slog.Warn("Failed to delete misc commission", "id", id, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Misc commission deleted", nil)
}
