package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPricingLookup struct {
	mock.Mock
}

func (m *MockPricingLookup) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *MockPricingLookup) PriceForPartner(ctx context.Context, partnerID, packageID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, partnerID, packageID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPricingLookup) B2BSavings(ctx context.Context, packageID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, packageID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestPackageHandler_get(t *testing.T) {
	mockService := &MockPricingLookup{}
	handler := NewPackageHandler(mockService)

	// Тест 1: активный пакет
	c, w := newTestContext(http.MethodGet, "/packages/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	asPartner(c, "42")

	mockService.On("GetPackage", mock.Anything, int64(7)).Return(&domain.Package{
		ID:       7,
		Name:     "Bali 5D4N",
		Price:    decimal.NewFromInt(1000000),
		B2BPrice: decimal.NewFromInt(900000),
		Active:   true,
	}, nil).Once()

	handler.get(c)
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Name       string          `json:"name"`
		B2BSavings decimal.Decimal `json:"b2b_savings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bali 5D4N", response.Name)
	assert.True(t, response.B2BSavings.Equal(decimal.NewFromInt(100000)))

	// Тест 2: пакет не найден
	c, w = newTestContext(http.MethodGet, "/packages/8", nil)
	c.Params = gin.Params{{Key: "id", Value: "8"}}
	asPartner(c, "42")

	mockService.On("GetPackage", mock.Anything, int64(8)).Return(nil, domain.ErrPackageNotFound).Once()

	handler.get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	mockService.AssertExpectations(t)
}
