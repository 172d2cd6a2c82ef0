package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/dedup"
	"github.com/cmlabs-hris/erp-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== FAKES ==========

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeGate struct {
	confirmed  map[commission.Scope]bool
	checked    []commission.Scope
	operations []string
}

func (g *fakeGate) EnsureOpen(ctx context.Context, scope commission.Scope, operation string) error {
	g.checked = append(g.checked, scope)
	g.operations = append(g.operations, operation)
	if g.confirmed[scope] {
		return commission.ErrStatementConfirmed
	}
	return nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[int64]sales.SalesRecord
	nextID  int64
}

func (f *fakeRecordRepo) Create(ctx context.Context, r sales.SalesRecord) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, id int64) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return sales.SalesRecord{}, sales.ErrSalesRecordNotFound
	}
	return r, nil
}

func (f *fakeRecordRepo) GetByIDForUpdate(ctx context.Context, id int64) (sales.SalesRecord, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRecordRepo) Update(ctx context.Context, r sales.SalesRecord) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeRecordRepo) ListForStatement(ctx context.Context, salespersonID int64, from, to time.Time) ([]sales.SalesRecord, error) {
	return nil, nil
}

func (f *fakeRecordRepo) FindDuplicates(ctx context.Context, companyNameKey, phoneKey string, limit int) ([]sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []sales.SalesRecord
	for _, r := range f.records {
		if (companyNameKey != "" && r.CompanyNameKey == companyNameKey) || (phoneKey != "" && r.PhoneKey == phoneKey) {
			result = append(result, r)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type fakeClientRepo struct {
	clients []sales.SalesClient
}

func (f *fakeClientRepo) List(ctx context.Context) ([]sales.SalesClient, error) {
	return f.clients, nil
}

func (f *fakeClientRepo) Upsert(ctx context.Context, c sales.SalesClient) (sales.SalesClient, error) {
	for i := range f.clients {
		if f.clients[i].Name == c.Name {
			f.clients[i].CommissionRate = c.CommissionRate
			return f.clients[i], nil
		}
	}
	c.ID = int64(len(f.clients) + 1)
	f.clients = append(f.clients, c)
	return c, nil
}

type fakeUserRepo struct {
	users map[int64]user.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListSalespeople(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	return u, nil
}

// ========== TESTS ==========

type fixture struct {
	svc     *SalesServiceImpl
	records *fakeRecordRepo
	clients *fakeClientRepo
	gate    *fakeGate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		records: &fakeRecordRepo{records: map[int64]sales.SalesRecord{}},
		clients: &fakeClientRepo{},
		gate:    &fakeGate{confirmed: map[commission.Scope]bool{}},
	}
	users := &fakeUserRepo{users: map[int64]user.User{
		7: {ID: 7, Name: "Kim", Role: user.RoleSalesperson, IsActive: true},
		9: {ID: 9, Name: "Gone", Role: user.RoleSalesperson, IsActive: false},
		3: {ID: 3, Name: "Back office", Role: user.RoleAdmin, IsActive: true},
	}}
	f.svc = NewSalesService(fakeTransactor{}, f.records, f.clients, users, f.gate, dedup.NewNormalizer("KR"), nil)
	return f
}

func (f *fixture) seed(t *testing.T, r sales.SalesRecord) sales.SalesRecord {
	t.Helper()
	r.CompanyNameKey = dedup.CompanyKey(r.CompanyName)
	created, err := f.records.Create(context.Background(), r)
	require.NoError(t, err)
	return created
}

func date(s string) *time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return &d
}

func strPtr(s string) *string { return &s }

func TestCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{
		CompanyName: "(주)한빛세무", Phone: "010-1234-5678", SalespersonID: 7, ClientName: "ABC",
	})
	require.NoError(t, err)
	assert.Equal(t, "N", created.ContractStatus)
	assert.Equal(t, "ABC", *created.ClientName)

	stored := f.records.records[created.ID]
	assert.Equal(t, "한빛세무", stored.CompanyNameKey)
	assert.Equal(t, "+821012345678", stored.PhoneKey)

	t.Run("duplicate by company name is blocked", func(t *testing.T) {
		_, err := f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "한빛세무 주식회사", SalespersonID: 7})
		var dupErr *sales.DuplicateError
		require.True(t, errors.As(err, &dupErr))
		assert.True(t, errors.Is(err, sales.ErrDuplicateSalesRecord))
		require.Len(t, dupErr.Candidates, 1)
		assert.Equal(t, created.ID, dupErr.Candidates[0].ID)
	})

	t.Run("duplicate by phone is blocked", func(t *testing.T) {
		_, err := f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "Different", Phone: "+82 10 1234 5678", SalespersonID: 7})
		assert.True(t, errors.Is(err, sales.ErrDuplicateSalesRecord))
	})

	t.Run("force registers anyway", func(t *testing.T) {
		forced, err := f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "한빛세무", SalespersonID: 7, Force: true})
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, forced.ID)
	})
}

func TestCreateRecord_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "", SalespersonID: 7})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "company_name")

	_, err = f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "Acme", SalespersonID: 404})
	assert.True(t, errors.Is(err, sales.ErrSalespersonNotFound))

	_, err = f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "Acme", SalespersonID: 9})
	assert.True(t, errors.Is(err, sales.ErrSalespersonNotFound))

	// Admins do not earn commission
	_, err = f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "Acme", SalespersonID: 3})
	assert.True(t, errors.Is(err, sales.ErrSalespersonNotFound))

	_, err = f.svc.CreateRecord(ctx, sales.CreateSalesRecordRequest{CompanyName: "Acme"})
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "salesperson_id")

	assert.Empty(t, f.records.records)
}

func TestUpdateRecord_StatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.seed(t, sales.SalesRecord{CompanyName: "Acme", SalespersonID: 7, ContractStatus: sales.ContractStatusPending})

	_, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractStatus: strPtr("terminated")})
	assert.True(t, errors.Is(err, sales.ErrInvalidStatusTransition), "N -> terminated is not allowed")

	updated, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractStatus: strPtr("Y"), ContractDate: strPtr("2025-03-05")})
	require.NoError(t, err)
	assert.Equal(t, "Y", updated.ContractStatus)
	assert.Equal(t, "2025-03-05", *updated.ContractDate)

	updated, err = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractStatus: strPtr("cancelled")})
	require.NoError(t, err)
	assert.Equal(t, "terminated", updated.ContractStatus)

	_, err = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractStatus: strPtr("Y")})
	assert.True(t, errors.Is(err, sales.ErrInvalidStatusTransition))

	assert.Empty(t, f.gate.checked, "status edits do not go through the gate")
}

func TestUpdateRecord_CommissionRateGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.seed(t, sales.SalesRecord{CompanyName: "Acme", SalespersonID: 7, ContractStatus: sales.ContractStatusCompleted, ContractDate: date("2025-03-05")})
	march := commission.Scope{SalespersonID: 7, Year: "2025", Month: "03"}
	april := commission.Scope{SalespersonID: 7, Year: "2025", Month: "04"}

	rate := decimal.NewFromInt(700)
	updated, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &rate})
	require.NoError(t, err)
	require.NotNil(t, updated.CommissionRate)
	assert.True(t, rate.Equal(*updated.CommissionRate))
	assert.Equal(t, []commission.Scope{march}, f.gate.checked)

	f.gate.confirmed[march] = true
	other := decimal.NewFromInt(800)
	_, err = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &other})
	assert.True(t, errors.Is(err, commission.ErrStatementConfirmed))
	assert.True(t, rate.Equal(*f.records.records[rec.ID].CommissionRate), "rate unchanged after rejection")

	t.Run("moving into a confirmed month with a rate edit is rejected", func(t *testing.T) {
		f.gate.confirmed = map[commission.Scope]bool{april: true}
		f.gate.checked = nil
		_, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &other, ContractDate: strPtr("2025-04-02")})
		assert.True(t, errors.Is(err, commission.ErrStatementConfirmed))
		assert.Equal(t, []commission.Scope{march, april}, f.gate.checked)
	})

	t.Run("zero clears the override", func(t *testing.T) {
		f.gate.confirmed = map[commission.Scope]bool{}
		zero := decimal.Zero
		updated, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &zero})
		require.NoError(t, err)
		assert.Nil(t, updated.CommissionRate)
	})

	t.Run("non-rate edits pass on a confirmed scope", func(t *testing.T) {
		f.gate.confirmed = map[commission.Scope]bool{march: true}
		f.gate.checked = nil
		updated, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, Phone: strPtr("010-9999-0000")})
		require.NoError(t, err)
		assert.Equal(t, "010-9999-0000", *updated.Phone)
		assert.Empty(t, f.gate.checked)
		assert.NotEmpty(t, f.records.records[rec.ID].PhoneKey)
	})
}

func TestUpdateRecord_PeriodMoveGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	original := decimal.NewFromInt(600)
	rec := f.seed(t, sales.SalesRecord{CompanyName: "Acme", SalespersonID: 7, ContractStatus: sales.ContractStatusCompleted, ContractDate: date("2025-03-05"), CommissionRate: &original})
	march := commission.Scope{SalespersonID: 7, Year: "2025", Month: "03"}
	april := commission.Scope{SalespersonID: 7, Year: "2025", Month: "04"}
	f.gate.confirmed[march] = true

	t.Run("moving out of a confirmed month is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025-04-01")})
		assert.True(t, errors.Is(err, commission.ErrStatementConfirmed))
		assert.Equal(t, []commission.Scope{march}, f.gate.checked)
		assert.Equal(t, []string{commission.OperationPeriodEdit}, f.gate.operations)
	})

	t.Run("clearing the contract date is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("")})
		assert.True(t, errors.Is(err, commission.ErrStatementConfirmed))
	})

	t.Run("rate cannot be re-edited through another month", func(t *testing.T) {
		smuggled := decimal.NewFromInt(900)
		_, _ = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025-04-01")})
		_, _ = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &smuggled})
		_, _ = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025-03-05")})

		stored := f.records.records[rec.ID]
		assert.Equal(t, "2025-03-05", stored.ContractDate.Format("2006-01-02"))
		require.NotNil(t, stored.CommissionRate)
		assert.True(t, original.Equal(*stored.CommissionRate))
	})

	t.Run("moving within open months passes", func(t *testing.T) {
		f.gate.confirmed = map[commission.Scope]bool{}
		f.gate.checked = nil
		updated, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025-04-20")})
		require.NoError(t, err)
		assert.Equal(t, "2025-04-20", *updated.ContractDate)
		assert.Equal(t, []commission.Scope{march, april}, f.gate.checked)
	})

	t.Run("same-month date change is not gated", func(t *testing.T) {
		f.gate.confirmed = map[commission.Scope]bool{april: true}
		f.gate.checked = nil
		_, err := f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025-04-21")})
		require.NoError(t, err)
		assert.Empty(t, f.gate.checked)
	})
}

func TestUpdateRecord_AmountsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.seed(t, sales.SalesRecord{CompanyName: "Acme", SalespersonID: 7, ContractStatus: sales.ContractStatusPending})

	req := sales.UpdateSalesRecordRequest{ID: rec.ID}
	require.NoError(t, req.ContractClient.UnmarshalJSON([]byte(`"500,000"`)))
	require.NoError(t, req.ActualSales.UnmarshalJSON([]byte(`1200000`)))

	updated, err := f.svc.UpdateRecord(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(500000), *updated.ContractClient)
	assert.Equal(t, int64(1200000), *updated.ActualSales)

	bad := sales.UpdateSalesRecordRequest{ID: rec.ID, ContractDate: strPtr("2025/03/01")}
	require.NoError(t, bad.ContractClient.UnmarshalJSON([]byte(`"abc"`)))
	_, err = f.svc.UpdateRecord(ctx, bad)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := verrs.ToMap()
	assert.Contains(t, fields, "contract_client")
	assert.Contains(t, fields, "contract_date")

	negative := sales.UpdateSalesRecordRequest{ID: rec.ID}
	require.NoError(t, negative.ContractClient.UnmarshalJSON([]byte(`-500000`)))
	_, err = f.svc.UpdateRecord(ctx, negative)
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "must be non-negative", verrs.ToMap()["contract_client"])
	assert.Equal(t, int64(500000), *f.records.records[rec.ID].ContractClient)

	precise := decimal.RequireFromString("600.125")
	_, err = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: rec.ID, CommissionRate: &precise})
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "commission_rate")

	_, err = f.svc.UpdateRecord(ctx, sales.UpdateSalesRecordRequest{ID: 404, Phone: strPtr("1")})
	assert.True(t, errors.Is(err, sales.ErrSalesRecordNotFound))
}

func TestFindDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, sales.SalesRecord{CompanyName: "ABC Co., Ltd.", SalespersonID: 7})

	found, err := f.svc.FindDuplicates(ctx, sales.DuplicateCheckRequest{CompanyName: "abc"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = f.svc.FindDuplicates(ctx, sales.DuplicateCheckRequest{CompanyName: "xyz"})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = f.svc.FindDuplicates(ctx, sales.DuplicateCheckRequest{})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestUpsertClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.UpsertClient(ctx, sales.UpsertSalesClientRequest{Name: "ABC", CommissionRate: decimal.NewFromInt(600)})
	require.NoError(t, err)
	assert.Equal(t, "ABC", created.Name)

	updated, err := f.svc.UpsertClient(ctx, sales.UpsertSalesClientRequest{Name: "ABC", CommissionRate: decimal.NewFromInt(650)})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, decimal.NewFromInt(650).Equal(updated.CommissionRate))

	list, err := f.svc.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.UpsertClient(ctx, sales.UpsertSalesClientRequest{Name: "Bad", CommissionRate: decimal.Zero})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}
