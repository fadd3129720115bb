package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditUseCase struct {
	mock.Mock
}

func (m *MockAuditUseCase) List(ctx context.Context, actor domain.Actor, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLogEntry), args.Error(1)
}

func TestAuditHandler_list(t *testing.T) {
	mockService := &MockAuditUseCase{}
	handler := NewAuditHandler(mockService)

	c, w := newTestContext(http.MethodGet,
		"/audit-logs?target_type=partner_verification&target_id=9&from=2026-01-01T00:00:00Z&limit=10", nil)
	asAdmin(c, "1")

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mockService.On("List", mock.Anything, domain.Admin(1), mock.MatchedBy(func(f domain.AuditLogFilter) bool {
		return f.TargetType == domain.TargetVerification &&
			f.TargetID != nil && *f.TargetID == 9 &&
			f.From != nil && f.From.Equal(from) &&
			f.To == nil && f.ActorID == nil &&
			f.Limit == 10
	})).Return([]domain.AuditLogEntry{{
		ID:         "a1",
		ActorType:  domain.ActorAdmin,
		Action:     domain.ActionApprove,
		TargetType: domain.TargetVerification,
		TargetID:   9,
		CreatedAt:  from.Add(time.Hour),
	}}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Entries []domain.AuditLogEntry `json:"entries"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, domain.ActionApprove, response.Entries[0].Action)
	mockService.AssertExpectations(t)
}

func TestAuditHandler_listBadQuery(t *testing.T) {
	mockService := &MockAuditUseCase{}
	handler := NewAuditHandler(mockService)

	// Тест 1: некорректная дата
	c, w := newTestContext(http.MethodGet, "/audit-logs?actor_id=1&from=yesterday", nil)
	asAdmin(c, "1")
	handler.list(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Тест 2: партнеру журнал недоступен
	c, w = newTestContext(http.MethodGet, "/audit-logs?actor_id=1", nil)
	asPartner(c, "42")
	handler.list(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}
