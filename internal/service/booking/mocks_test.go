package booking

import (
	"context"
	"io"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/invoice"
	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/internal/recorder"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// Mock структуры

type fakeTransactor struct {
	calls     int
	rollbacks int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.rollbacks++
		return err
	}
	return nil
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) IdentifiersTaken(ctx context.Context, reference, invoice string) (bool, error) {
	args := m.Called(ctx, reference, invoice)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) SaveStatus(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) AppendHistory(ctx context.Context, bookingID int64, entry domain.StatusHistoryEntry) error {
	args := m.Called(ctx, bookingID, entry)
	return args.Error(0)
}

func (m *MockBookingRepository) SetInvoice(ctx context.Context, bookingID int64, url, path string) error {
	args := m.Called(ctx, bookingID, url, path)
	return args.Error(0)
}

func (m *MockBookingRepository) SetPaymentProof(ctx context.Context, bookingID int64, ref string, at time.Time) error {
	args := m.Called(ctx, bookingID, ref, at)
	return args.Error(0)
}

type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, v *domain.PartnerVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVerificationRepository) GetByID(ctx context.Context, id int64) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationRepository) GetByUserID(ctx context.Context, userID int64) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationRepository) GetForUpdate(ctx context.Context, id int64) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*domain.PartnerVerification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartnerVerification), args.Error(1)
}

func (m *MockVerificationRepository) Save(ctx context.Context, v *domain.PartnerVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

type MockPricing struct {
	mock.Mock
}

func (m *MockPricing) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *MockPricing) PriceForPartner(ctx context.Context, partnerID, packageID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, partnerID, packageID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPricing) B2BSavings(ctx context.Context, packageID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, packageID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, event recorder.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockInvoiceRenderer struct {
	mock.Mock
}

func (m *MockInvoiceRenderer) Generate(ctx context.Context, d invoice.Details) (invoice.Artifact, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(invoice.Artifact), args.Error(1)
}

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

// recordingNotifier captures dispatched messages and reports both channels as delivered.
type recordingNotifier struct {
	messages []notification.Message
}

func (n *recordingNotifier) Dispatch(ctx context.Context, msg notification.Message) notification.Result {
	n.messages = append(n.messages, msg)
	return notification.Result{
		Event:     msg.Event,
		Success:   true,
		Primary:   notification.Outcome{Channel: "email", Succeeded: true, Message: "sent"},
		Secondary: notification.Outcome{Channel: "whatsapp", Succeeded: true, Message: "sent"},
	}
}

func (n *recordingNotifier) events() []notification.Event {
	out := make([]notification.Event, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Event)
	}
	return out
}
