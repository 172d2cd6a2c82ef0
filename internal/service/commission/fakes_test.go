package commission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/sales"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
)

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeStatementRepo struct {
	mu     sync.Mutex
	states map[commission.Scope]commission.StatementState
	events []commission.StatementEvent
}

func newFakeStatementRepo() *fakeStatementRepo {
	return &fakeStatementRepo{states: map[commission.Scope]commission.StatementState{}}
}

func (f *fakeStatementRepo) Get(ctx context.Context, scope commission.Scope) (commission.StatementState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[scope]
	if !ok {
		return commission.StatementState{}, commission.ErrStatementNotFound
	}
	return state, nil
}

func (f *fakeStatementRepo) LockScope(ctx context.Context, scope commission.Scope) (commission.StatementState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[scope]
	if !ok {
		state = commission.StatementState{Scope: scope}
		f.states[scope] = state
	}
	return state, nil
}

func (f *fakeStatementRepo) SaveConfirmed(ctx context.Context, state commission.StatementState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state.Scope] = state
	return nil
}

func (f *fakeStatementRepo) Reopen(ctx context.Context, scope commission.Scope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := f.states[scope]
	state.IsConfirmed = false
	state.Snapshot = nil
	state.SnapshotHash = ""
	state.ConfirmedAt = nil
	state.ConfirmedBy = nil
	state.Version++
	f.states[scope] = state
	return nil
}

func (f *fakeStatementRepo) ListConfirmedByPeriod(ctx context.Context, year, month string) ([]commission.StatementState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []commission.StatementState
	for scope, state := range f.states {
		if scope.Year == year && scope.Month == month && state.IsConfirmed {
			result = append(result, state)
		}
	}
	return result, nil
}

func (f *fakeStatementRepo) AppendEvent(ctx context.Context, event commission.StatementEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStatementRepo) ListEvents(ctx context.Context, scope commission.Scope) ([]commission.StatementEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []commission.StatementEvent
	for _, e := range f.events {
		if e.Scope == scope {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeMiscRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []commission.MiscCommission
}

func (f *fakeMiscRepo) Create(ctx context.Context, m commission.MiscCommission) (commission.MiscCommission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now()
	f.entries = append(f.entries, m)
	return m, nil
}

func (f *fakeMiscRepo) GetByID(ctx context.Context, id int64) (commission.MiscCommission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.entries {
		if m.ID == id {
			return m, nil
		}
	}
	return commission.MiscCommission{}, commission.ErrMiscCommissionNotFound
}

func (f *fakeMiscRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.entries {
		if m.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return commission.ErrMiscCommissionNotFound
}

func (f *fakeMiscRepo) ListByScope(ctx context.Context, scope commission.Scope) ([]commission.MiscCommission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []commission.MiscCommission
	for _, m := range f.entries {
		if m.Scope() == scope {
			result = append(result, m)
		}
	}
	return result, nil
}

type fakeSalesRecordRepo struct {
	mu      sync.Mutex
	records map[int64]sales.SalesRecord
}

func newFakeSalesRecordRepo(records ...sales.SalesRecord) *fakeSalesRecordRepo {
	f := &fakeSalesRecordRepo{records: map[int64]sales.SalesRecord{}}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeSalesRecordRepo) Create(ctx context.Context, r sales.SalesRecord) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.records) + 1)
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeSalesRecordRepo) GetByID(ctx context.Context, id int64) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return sales.SalesRecord{}, sales.ErrSalesRecordNotFound
	}
	return r, nil
}

func (f *fakeSalesRecordRepo) GetByIDForUpdate(ctx context.Context, id int64) (sales.SalesRecord, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeSalesRecordRepo) Update(ctx context.Context, r sales.SalesRecord) (sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
	return r, nil
}

func (f *fakeSalesRecordRepo) ListForStatement(ctx context.Context, salespersonID int64, from, to time.Time) ([]sales.SalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []sales.SalesRecord
	for _, r := range f.records {
		if r.SalespersonID != salespersonID || !r.ContractStatus.IsCommissionable() || r.ContractDate == nil {
			continue
		}
		if r.ContractDate.Before(from) || !r.ContractDate.Before(to) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ContractDate.Equal(*result[j].ContractDate) {
			return result[i].ContractDate.Before(*result[j].ContractDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (f *fakeSalesRecordRepo) FindDuplicates(ctx context.Context, companyNameKey, phoneKey string, limit int) ([]sales.SalesRecord, error) {
	return nil, nil
}

type fakeSalesClientRepo struct {
	clients []sales.SalesClient
}

func (f *fakeSalesClientRepo) List(ctx context.Context) ([]sales.SalesClient, error) {
	return f.clients, nil
}

func (f *fakeSalesClientRepo) Upsert(ctx context.Context, c sales.SalesClient) (sales.SalesClient, error) {
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
	users []user.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) ListSalespeople(ctx context.Context) ([]user.User, error) {
	var result []user.User
	for _, u := range f.users {
		if u.Role == user.RoleSalesperson && u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, u)
	return u, nil
}
