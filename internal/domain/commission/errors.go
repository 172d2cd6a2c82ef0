package commission

import "errors"

var (
	ErrStatementConfirmed     = errors.New("commission statement already confirmed")
	ErrStatementNotConfirmed  = errors.New("commission statement is not confirmed")
	ErrStatementNotFound      = errors.New("commission statement not found")
	ErrTotalsMismatch         = errors.New("submitted total does not match the computed statement")
	ErrMiscCommissionNotFound = errors.New("misc commission not found")
	ErrScopeAccessDenied      = errors.New("cannot access another salesperson's statement")
	ErrCorruptSnapshot        = errors.New("stored statement snapshot is unreadable")
)
