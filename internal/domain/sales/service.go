package sales

import "context"

type SalesService interface {
	GetRecord(ctx context.Context, id int64) (SalesRecordResponse, error)
	CreateRecord(ctx context.Context, req CreateSalesRecordRequest) (SalesRecordResponse, error)
	UpdateRecord(ctx context.Context, req UpdateSalesRecordRequest) (SalesRecordResponse, error)
	FindDuplicates(ctx context.Context, req DuplicateCheckRequest) ([]SalesRecordResponse, error)

	ListClients(ctx context.Context) ([]SalesClientResponse, error)
	UpsertClient(ctx context.Context, req UpsertSalesClientRequest) (SalesClientResponse, error)
}
