package sales

import (
	"context"
	"time"
)

type SalesRecordRepository interface {
	Create(ctx context.Context, record SalesRecord) (SalesRecord, error)
	GetByID(ctx context.Context, id int64) (SalesRecord, error)
	// GetByIDForUpdate row-locks the record; only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (SalesRecord, error)
	Update(ctx context.Context, record SalesRecord) (SalesRecord, error)
	// ListForStatement returns completed and terminated records of a salesperson with
	// contract_date in [from, to), ordered by contract_date then id.
	ListForStatement(ctx context.Context, salespersonID int64, from, to time.Time) ([]SalesRecord, error)
	FindDuplicates(ctx context.Context, companyNameKey, phoneKey string, limit int) ([]SalesRecord, error)
}

type SalesClientRepository interface {
	List(ctx context.Context) ([]SalesClient, error)
	Upsert(ctx context.Context, client SalesClient) (SalesClient, error)
}
