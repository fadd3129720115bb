package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/internal/service/verification"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerificationUseCase struct {
	mock.Mock
}

func (m *MockVerificationUseCase) Submit(ctx context.Context, input verification.SubmitInput) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationUseCase) Approve(ctx context.Context, id int64, actor domain.Actor, notes string) (*verification.Result, error) {
	return m.result(m.Called(ctx, id, actor, notes))
}

func (m *MockVerificationUseCase) Reject(ctx context.Context, id int64, actor domain.Actor, notes string) (*verification.Result, error) {
	return m.result(m.Called(ctx, id, actor, notes))
}

func (m *MockVerificationUseCase) SetPending(ctx context.Context, id int64, actor domain.Actor, notes string) (*verification.Result, error) {
	return m.result(m.Called(ctx, id, actor, notes))
}

func (m *MockVerificationUseCase) Get(ctx context.Context, id int64, actor domain.Actor) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationUseCase) result(args mock.Arguments) (*verification.Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.Result), args.Error(1)
}

func multipartProfile(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("company_name", "Sunrise Travel"))
	require.NoError(t, mw.WriteField("contact_person", "Dewi"))
	require.NoError(t, mw.WriteField("contact_email", "ops@sunrise.example"))
	if withFile {
		part, err := mw.CreateFormFile("credential_file", "license.pdf")
		require.NoError(t, err)
		_, _ = part.Write([]byte("license"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestVerificationHandler_submit(t *testing.T) {
	mockService := &MockVerificationUseCase{}
	handler := NewVerificationHandler(mockService)

	// Тест 1: первичная заявка с файлом
	body, contentType := multipartProfile(t, true)
	c, w := newTestContext(http.MethodPost, "/verifications", body)
	c.Request.Header.Set("Content-Type", contentType)
	asPartner(c, "42")

	var captured verification.SubmitInput
	mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in verification.SubmitInput) bool {
		if in.FileName != "license.pdf" {
			return false
		}
		captured = in
		return true
	})).Return(&domain.PartnerVerification{ID: 9, UserID: 42, Status: domain.VerificationPending}, nil).Once()

	handler.submit(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, int64(42), captured.UserID)
	assert.Equal(t, "Sunrise Travel", captured.Profile.CompanyName)
	assert.Equal(t, int64(7), captured.Size)

	// Тест 2: повторная подача без файла
	body, contentType = multipartProfile(t, false)
	c, w = newTestContext(http.MethodPost, "/verifications", body)
	c.Request.Header.Set("Content-Type", contentType)
	asPartner(c, "42")

	mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in verification.SubmitInput) bool {
		return in.Content == nil && in.Profile.ContactPerson == "Dewi"
	})).Return(&domain.PartnerVerification{ID: 9, UserID: 42, Status: domain.VerificationPending}, nil).Once()

	handler.submit(c)
	assert.Equal(t, http.StatusAccepted, w.Code)

	mockService.AssertExpectations(t)
}

func TestVerificationHandler_decisions(t *testing.T) {
	mockService := &MockVerificationUseCase{}
	handler := NewVerificationHandler(mockService)

	approved := &verification.Result{
		Verification:  &domain.PartnerVerification{ID: 9, Status: domain.VerificationApproved},
		Notifications: []notification.Result{{Event: notification.EventPartnerApproval, Success: true}},
	}

	// Тест 1: одобрение
	c, w := newTestContext(http.MethodPost, "/verifications/9/approve", strings.NewReader(`{"notes":"docs ok"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	asAdmin(c, "1")

	mockService.On("Approve", mock.Anything, int64(9), domain.Admin(1), "docs ok").Return(approved, nil).Once()

	handler.approve(c)
	assert.Equal(t, http.StatusOK, w.Code)

	var response verification.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.VerificationApproved, response.Verification.Status)
	require.Len(t, response.Notifications, 1)
	assert.True(t, response.Notifications[0].Success)

	// Тест 2: отклонение без причины
	c, w = newTestContext(http.MethodPost, "/verifications/9/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	asAdmin(c, "1")

	mockService.On("Reject", mock.Anything, int64(9), domain.Admin(1), "").
		Return(nil, domain.NewValidationError("notes", "rejection reason is required")).Once()

	handler.reject(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Тест 3: возврат в pending
	c, w = newTestContext(http.MethodPost, "/verifications/9/pending", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	asAdmin(c, "1")

	mockService.On("SetPending", mock.Anything, int64(9), domain.Admin(1), "").
		Return(&verification.Result{Verification: &domain.PartnerVerification{ID: 9, Status: domain.VerificationPending}}, nil).Once()

	handler.setPending(c)
	assert.Equal(t, http.StatusOK, w.Code)

	// Тест 4: партнер не может принимать решения
	c, w = newTestContext(http.MethodPost, "/verifications/9/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	asPartner(c, "42")

	handler.approve(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mockService.AssertExpectations(t)
}

func TestVerificationHandler_get(t *testing.T) {
	mockService := &MockVerificationUseCase{}
	handler := NewVerificationHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/verifications/404", nil)
	c.Params = gin.Params{{Key: "id", Value: "404"}}
	asAdmin(c, "1")

	mockService.On("Get", mock.Anything, int64(404), domain.Admin(1)).Return(nil, domain.ErrVerificationNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(domain.KindNotFound), decodeError(t, w)["kind"])
	mockService.AssertExpectations(t)
}

