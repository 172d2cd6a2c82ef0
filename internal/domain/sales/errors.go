package sales

import "errors"

var (
	ErrSalesRecordNotFound     = errors.New("sales record not found")
	ErrInvalidStatusTransition = errors.New("invalid contract status transition")
	ErrDuplicateSalesRecord    = errors.New("possible duplicate sales record")
	ErrSalespersonNotFound     = errors.New("salesperson not found")
)

// DuplicateError carries the records that matched a new lead.
type DuplicateError struct {
	Candidates []SalesRecordResponse
}

func (e *DuplicateError) Error() string {
	return ErrDuplicateSalesRecord.Error()
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateSalesRecord
}
