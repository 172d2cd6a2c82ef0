package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type salesClientRepositoryImpl struct {
	db *database.DB
}

func NewSalesClientRepository(db *database.DB) sales.SalesClientRepository {
	return &salesClientRepositoryImpl{db: db}
}

func scanSalesClient(row pgx.Row) (sales.SalesClient, error) {
	var (
		c    sales.SalesClient
		rate string
	)
	if err := row.Scan(&c.ID, &c.Name, &rate, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return sales.SalesClient{}, err
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return sales.SalesClient{}, fmt.Errorf("invalid commission_rate on client %q: %w", c.Name, err)
	}
	c.CommissionRate = d
	return c, nil
}

// List implements sales.SalesClientRepository.
func (r *salesClientRepositoryImpl) List(ctx context.Context) ([]sales.SalesClient, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, name, commission_rate::text, created_at, updated_at
		FROM sales_clients
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales clients: %w", err)
	}
	defer rows.Close()

	var clients []sales.SalesClient
	for rows.Next() {
		c, err := scanSalesClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Upsert implements sales.SalesClientRepository.
func (r *salesClientRepositoryImpl) Upsert(ctx context.Context, client sales.SalesClient) (sales.SalesClient, error) {
	q := GetQuerier(ctx, r.db)

	saved, err := scanSalesClient(q.QueryRow(ctx, `
		INSERT INTO sales_clients (name, commission_rate)
		VALUES ($1, $2::numeric)
		ON CONFLICT (name) DO UPDATE
		SET commission_rate = EXCLUDED.commission_rate, updated_at = NOW()
		RETURNING id, name, commission_rate::text, created_at, updated_at
	`, client.Name, client.CommissionRate.String()))
	if err != nil {
		return sales.SalesClient{}, fmt.Errorf("failed to upsert sales client: %w", err)
	}
	return saved, nil
}
