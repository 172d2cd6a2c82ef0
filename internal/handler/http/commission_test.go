package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cmlabs-hris/erp-backend-go/internal/domain/commission"
	"github.com/cmlabs-hris/erp-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionHandler_GetDetails_Scope(t *testing.T) {
	ts := newTestServer(t)
	salesToken := ts.token(t, 7, user.RoleSalesperson)
	adminToken := ts.token(t, 3, user.RoleAdmin)

	t.Run("salesperson defaults to own scope", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/commission-details?year=2024&month=3", salesToken, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, commission.Scope{SalespersonID: 7, Year: "2024", Month: "03"}, ts.commission.lastScope)

		var stmt commission.StatementResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &stmt))
		assert.Equal(t, int64(2000000), stmt.TotalCommission)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &raw))
		assert.JSONEq(t, "false", string(raw["isConfirmed"]))
		assert.NotContains(t, raw, "is_confirmed")
	})

	t.Run("salesperson cannot read another scope", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/commission-details?salesperson_id=8&year=2024&month=03", salesToken, nil)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin reads any scope", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/commission-details?salesperson_id=8&year=2024&month=12", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, commission.Scope{SalespersonID: 8, Year: "2024", Month: "12"}, ts.commission.lastScope)
	})

	t.Run("admin must name the salesperson", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/commission-details?year=2024&month=12", adminToken, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decodeEnvelope(t, rr).Error.Details, "salesperson_id")
	})

	t.Run("invalid month", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/commission-details?year=2024&month=13", salesToken, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decodeEnvelope(t, rr).Error.Details, "month")
	})
}

func TestCommissionHandler_Confirm(t *testing.T) {
	total := int64(2000000)
	body := map[string]interface{}{"salesperson_id": 7, "year": "2024", "month": "03", "total_commission": total}

	t.Run("salesperson forbidden", func(t *testing.T) {
		ts := newTestServer(t)
		rr := ts.do(t, http.MethodPost, "/api/v1/commission-statements/confirm", ts.token(t, 7, user.RoleSalesperson), body)
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Zero(t, ts.commission.lastConfirm.SalespersonID)
	})

	t.Run("admin confirms as caller", func(t *testing.T) {
		ts := newTestServer(t)
		rr := ts.do(t, http.MethodPost, "/api/v1/commission-statements/confirm", ts.token(t, 3, user.RoleAdmin), body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, int64(3), ts.commission.lastConfirm.ConfirmedBy)
		require.NotNil(t, ts.commission.lastConfirm.TotalCommission)
		assert.Equal(t, total, *ts.commission.lastConfirm.TotalCommission)
	})

	errorCases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"already confirmed", commission.ErrStatementConfirmed, "STATEMENT_CONFIRMED"},
		{"totals mismatch", commission.ErrTotalsMismatch, "CONFLICT"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.commission.err = tt.err
			rr := ts.do(t, http.MethodPost, "/api/v1/commission-statements/confirm", ts.token(t, 3, user.RoleAdmin), body)
			require.Equal(t, http.StatusConflict, rr.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, rr).Error.Code)
		})
	}
}

func TestCommissionHandler_Reopen_OwnerOnly(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]interface{}{"salesperson_id": 7, "year": "2024", "month": "03", "reason": "late refund"}

	rr := ts.do(t, http.MethodPost, "/api/v1/commission-statements/reopen", ts.token(t, 3, user.RoleAdmin), body)
	require.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), string(user.PermissionCommissionReopen))

	rr = ts.do(t, http.MethodPost, "/api/v1/commission-statements/reopen", ts.token(t, 7, user.RoleSalesperson), body)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/v1/commission-statements/reopen", ts.token(t, 1, user.RoleOwner), body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(1), ts.commission.lastReopen.ReopenedBy)
	assert.Equal(t, "late refund", ts.commission.lastReopen.Reason)
}

func TestCommissionHandler_Export(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/v1/commission-statements/export?salesperson_id=7&year=2024&month=3", ts.token(t, 7, user.RoleSalesperson), nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/v1/commission-statements/export?salesperson_id=7&year=2024&month=3", ts.token(t, 3, user.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="commission_2024_03.xlsx"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", rr.Body.String())
}

func TestCommissionHandler_Misc(t *testing.T) {
	ts := newTestServer(t)
	adminToken := ts.token(t, 3, user.RoleAdmin)
	salesToken := ts.token(t, 7, user.RoleSalesperson)
	body := map[string]interface{}{"salesperson_id": 7, "year": "2024", "month": "03", "description": "bonus", "amount": 100000}

	t.Run("salesperson cannot create", func(t *testing.T) {
		rr := ts.do(t, http.MethodPost, "/api/v1/misc-commissions", salesToken, body)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin creates", func(t *testing.T) {
		rr := ts.do(t, http.MethodPost, "/api/v1/misc-commissions", adminToken, body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, int64(3), ts.commission.lastMisc.CreatedBy)
	})

	t.Run("salesperson lists own", func(t *testing.T) {
		rr := ts.do(t, http.MethodGet, "/api/v1/misc-commissions?year=2024&month=03", salesToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(7), ts.commission.lastScope.SalespersonID)
	})

	t.Run("create on confirmed scope", func(t *testing.T) {
		ts.commission.err = commission.ErrStatementConfirmed
		defer func() { ts.commission.err = nil }()
		rr := ts.do(t, http.MethodPost, "/api/v1/misc-commissions", adminToken, body)
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "STATEMENT_CONFIRMED", decodeEnvelope(t, rr).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rr := ts.do(t, http.MethodDelete, "/api/v1/misc-commissions/42", adminToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(42), ts.commission.deletedID)

		rr = ts.do(t, http.MethodDelete, "/api/v1/misc-commissions/abc", adminToken, nil)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete missing", func(t *testing.T) {
		ts.commission.err = commission.ErrMiscCommissionNotFound
		defer func() { ts.commission.err = nil }()
		rr := ts.do(t, http.MethodDelete, "/api/v1/misc-commissions/9", adminToken, nil)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}
