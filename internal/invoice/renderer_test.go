package invoice

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	args := m.Called(ctx, dir, name, r)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockFileStore) Remove(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockFileStore) URL(ref string) string {
	return "/files/" + ref
}

func invoiceBooking() *domain.Booking {
	return &domain.Booking{
		BookingReference: "TRV-B2B-20261018-AB12",
		InvoiceNumber:    "INV-TRV-20261018-CD34",
		PartnerID:        3,
		TravelerCount:    2,
		TotalAmount:      decimal.NewFromInt(2000000),
		B2BDiscount:      decimal.NewFromInt(200000),
		FinalAmount:      decimal.NewFromInt(1800000),
		TravelerDetails: []domain.TravelerDetail{
			{Name: "Ahmad", Email: "ahmad@example.com"},
			{Name: "Fatimah", Phone: "62811"},
		},
		CreatedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	}
}

func TestTextRenderer_Generate(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	r := NewTextRenderer(store)
	ctx := context.Background()

	art, err := r.Generate(ctx, Details{Booking: invoiceBooking(), PackageName: "Umrah Reguler", CompanyName: "PT Amanah Travel"})
	require.NoError(t, err)
	assert.Equal(t, "invoices/INV-TRV-20261018-CD34.txt", art.Path)
	assert.Equal(t, "/files/invoices/INV-TRV-20261018-CD34.txt", art.URL)

	rc, err := store.Open(ctx, art.Path)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	text := string(data)
	assert.Contains(t, text, "INVOICE INV-TRV-20261018-CD34")
	assert.Contains(t, text, "Issued: 2026-10-18")
	assert.Contains(t, text, "Unit price: 1000000.00")
	assert.Contains(t, text, "2. Fatimah")
	assert.True(t, strings.Contains(text, "Amount due:   1800000.00"))
}

func TestTextRenderer_StoreFailure(t *testing.T) {
	store := &MockFileStore{}
	r := NewTextRenderer(store)
	ctx := context.Background()

	store.On("Save", ctx, "invoices", "INV-TRV-20261018-CD34.txt", mock.Anything).Return("", errors.New("disk full")).Once()

	_, err := r.Generate(ctx, Details{Booking: invoiceBooking()})
	assert.ErrorIs(t, err, domain.ErrInvoiceFailed)
	assert.ErrorIs(t, err, domain.ErrDependency)
}

func TestTextRenderer_MissingInvoiceNumber(t *testing.T) {
	r := NewTextRenderer(&MockFileStore{})

	_, err := r.Generate(context.Background(), Details{Booking: &domain.Booking{}})
	assert.ErrorIs(t, err, domain.ErrInvoiceFailed)
}
