package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/erp-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalesHandler interface {
	GetRecord(w http.ResponseWriter, r *http.Request)
	CreateRecord(w http.ResponseWriter, r *http.Request)
	UpdateRecord(w http.ResponseWriter, r *http.Request)
	FindDuplicates(w http.ResponseWriter, r *http.Request)

	ListClients(w http.ResponseWriter, r *http.Request)
	UpsertClient(w http.ResponseWriter, r *http.Request)
}

type SalesHandlerImpl struct {
	salesService sales.SalesService
}

func NewSalesHandler(salesService sales.SalesService) SalesHandler {
	return &SalesHandlerImpl{
		salesService: salesService,
	}
}

func recordIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GetRecord implements SalesHandler.
func (h *SalesHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id, ok := recordIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid sales record ID", nil)
		return
	}

	record, err := h.salesService.GetRecord(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !caller.IsAdmin() && record.SalespersonID != caller.UserID {
		response.HandleError(w, commission.ErrScopeAccessDenied)
		return
	}

	response.Success(w, record)
}

// CreateRecord implements SalesHandler.
func (h *SalesHandlerImpl) CreateRecord(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req sales.CreateSalesRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRecord decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	// Salespeople register leads for themselves only.
	if !caller.IsAdmin() {
		req.SalespersonID = caller.UserID
	}

	record, err := h.salesService.CreateRecord(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to create sales record", "company_name", req.CompanyName, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Sales record created", record)
}

// UpdateRecord implements SalesHandler.
func (h *SalesHandlerImpl) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordIDParam(r)
	if !ok {
		response.BadRequest(w, "Invalid sales record ID", nil)
		return
	}

	var req sales.UpdateSalesRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateRecord decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = id

	record, err := h.salesService.UpdateRecord(r.Context(), req)
	if err != nil {
		slog.Warn("Failed to update sales record", "id", id, "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sales record updated", record)
}

// FindDuplicates implements SalesHandler.
func (h *SalesHandlerImpl) FindDuplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := sales.DuplicateCheckRequest{
		CompanyName: q.Get("company_name"),
		Phone:       q.Get("phone"),
	}

	candidates, err := h.salesService.FindDuplicates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, candidates)
}

// ========== SALES CLIENTS ==========

// ListClients implements SalesHandler.
func (h *SalesHandlerImpl) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.salesService.ListClients(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, clients)
}

// UpsertClient implements SalesHandler.
func (h *SalesHandlerImpl) UpsertClient(w http.ResponseWriter, r *http.Request) {
	var req sales.UpsertSalesClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpsertClient decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	client, err := h.salesService.UpsertClient(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sales client saved", client)
}
