package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var duplicateErr *sales.DuplicateError
	if errors.As(err, &duplicateErr) {
		ConflictWithData(w, "DUPLICATE_SALES_RECORD", "Possible duplicate sales record; resubmit with force=true to register anyway", map[string]interface{}{
			"candidates": duplicateErr.Candidates,
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAccountInactive):
		Forbidden(w, "Account is inactive")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, err.Error())

	// Commission domain errors
	case errors.Is(err, commission.ErrStatementConfirmed):
		StatementConfirmed(w, "Commission statement is already confirmed")
	case errors.Is(err, commission.ErrTotalsMismatch):
		Conflict(w, err.Error())
	case errors.Is(err, commission.ErrStatementNotConfirmed):
		Conflict(w, "Commission statement is not confirmed")
	case errors.Is(err, commission.ErrStatementNotFound):
		NotFound(w, "Commission statement not found")
	case errors.Is(err, commission.ErrMiscCommissionNotFound):
		NotFound(w, "Misc commission not found")
	case errors.Is(err, commission.ErrScopeAccessDenied):
		Forbidden(w, "Cannot access another salesperson's statement")

	// Sales domain errors
	case errors.Is(err, sales.ErrSalesRecordNotFound):
		NotFound(w, "Sales record not found")
	case errors.Is(err, sales.ErrSalespersonNotFound):
		NotFound(w, "Salesperson not found")
	case errors.Is(err, sales.ErrInvalidStatusTransition):
		ValidationError(w, map[string]string{"contract_status": err.Error()})

	// Default
	default:
		slog.Error("unhandled error", slog.Any("error", err))
		InternalServerError(w, "An unexpected error occurred")
	}
}
