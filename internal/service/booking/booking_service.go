package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/identifier"
	"github.com/Domenick1991/partnerbooking/internal/invoice"
	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/internal/recorder"
	"github.com/Domenick1991/partnerbooking/internal/repository"
	"github.com/Domenick1991/partnerbooking/internal/service/catalog"
	"github.com/Domenick1991/partnerbooking/internal/storage"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/Domenick1991/partnerbooking/pkg/metrics"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error)
	TransitionBooking(ctx context.Context, input TransitionInput) (*BookingResult, error)
	CancelBooking(ctx context.Context, bookingID, ownerID int64, reason string) (*domain.Booking, error)
	BulkTransition(ctx context.Context, input BulkTransitionInput) (*BulkTransitionResult, error)
	UploadPaymentProof(ctx context.Context, input PaymentProofInput) (*BookingResult, error)
	RequestPayment(ctx context.Context, bookingID int64, actor domain.Actor) (*BookingResult, error)
	GetBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error)
	GetPaymentProof(ctx context.Context, bookingID int64, actor domain.Actor) (io.ReadCloser, string, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, msg notification.Message) notification.Result
}

type Config struct {
	ReferencePrefix       string
	MaxIdentifierAttempts int
	MaxProofSize          int64
	AllowedProofTypes     []string
	AdminContact          notification.Recipient
}

type BookingService struct {
	tx            repository.Transactor
	bookings      repository.BookingRepository
	verifications repository.VerificationRepository
	pricing       catalog.PricingLookup
	ids           *identifier.Generator
	ledger        recorder.Recorder
	invoices      invoice.Renderer
	files         storage.FileStore
	notifier      Notifier
	cfg           Config
	log           logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

type CreateBookingInput struct {
	PartnerID       int64                   `json:"-"`
	PackageID       int64                   `json:"package_id" binding:"required"`
	TravelerCount   int                     `json:"traveler_count"`
	TravelerDetails []domain.TravelerDetail `json:"traveler_details"`
	SpecialRequests string                  `json:"special_requests"`
}

type TransitionInput struct {
	BookingID int64
	Status    domain.BookingStatus
	Actor     domain.Actor
	Notes     string
}

type BulkTransitionInput struct {
	BookingIDs []int64
	Status     domain.BookingStatus
	Actor      domain.Actor
	Notes      string
}

type PaymentProofInput struct {
	BookingID   int64
	OwnerID     int64
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// BookingResult is a booking together with the outcomes of the notifications it triggered.
type BookingResult struct {
	Booking       *domain.Booking       `json:"booking"`
	Notifications []notification.Result `json:"notifications"`
}

type BulkFailure struct {
	ID     int64       `json:"id"`
	Reason string      `json:"reason"`
	Kind   domain.Kind `json:"kind"`
}

type BulkTransitionResult struct {
	UpdatedCount  int                   `json:"updated_count"`
	Updated       []int64               `json:"updated"`
	Failures      []BulkFailure         `json:"failures"`
	Notifications []notification.Result `json:"notifications"`
}

type BookingServiceOption func(*BookingService)

func WithLogger(log logger.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	verifications repository.VerificationRepository,
	pricing catalog.PricingLookup,
	ids *identifier.Generator,
	ledger recorder.Recorder,
	invoices invoice.Renderer,
	files storage.FileStore,
	notifier Notifier,
	cfg Config,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:            tx,
		bookings:      bookings,
		verifications: verifications,
		pricing:       pricing,
		ids:           ids,
		ledger:        ledger,
		invoices:      invoices,
		files:         files,
		notifier:      notifier,
		cfg:           cfg,
		log:           logger.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking prices, persists and invoices a booking in one transaction, then notifies partner and admin.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*BookingResult, error) {
	if input.PartnerID <= 0 {
		return nil, domain.NewValidationError("partner_id", "is required")
	}
	if input.PackageID <= 0 {
		return nil, domain.NewValidationError("package_id", "is required")
	}
	if err := domain.ValidateBookingInput(input.TravelerCount, input.TravelerDetails); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		created    *domain.Booking
		pkg        *domain.Package
		partner    *domain.PartnerVerification
		invoiceRef string
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		partner, err = s.approvedPartner(ctx, input.PartnerID)
		if err != nil {
			return err
		}

		pkg, err = s.pricing.GetPackage(ctx, input.PackageID)
		if err != nil {
			return err
		}
		unitPrice, err := s.pricing.PriceForPartner(ctx, input.PartnerID, pkg.ID)
		if err != nil {
			return err
		}
		savings, err := s.pricing.B2BSavings(ctx, pkg.ID)
		if err != nil {
			return err
		}

		b, err := domain.NewBooking(domain.NewBookingParams{
			PartnerID:       input.PartnerID,
			Package:         *pkg,
			UnitPrice:       unitPrice,
			UnitSavings:     savings,
			TravelerCount:   input.TravelerCount,
			TravelerDetails: input.TravelerDetails,
			SpecialRequests: input.SpecialRequests,
		}, now)
		if err != nil {
			return err
		}

		if err := s.insertWithIdentifiers(ctx, b, now); err != nil {
			return err
		}

		art, err := s.invoices.Generate(ctx, invoice.Details{
			Booking:     b,
			PackageName: pkg.Name,
			CompanyName: partner.Profile.CompanyName,
			IssuedAt:    now,
		})
		if err != nil {
			if !errors.Is(err, domain.ErrInvoiceFailed) {
				err = fmt.Errorf("%w: %v", domain.ErrInvoiceFailed, err)
			}
			return err
		}
		invoiceRef = art.Path
		if err := s.bookings.SetInvoice(ctx, b.ID, art.URL, art.Path); err != nil {
			return err
		}
		b.InvoiceURL = art.URL
		b.InvoicePath = art.Path

		created = b
		return nil
	})
	if err != nil {
		s.discardFile(ctx, invoiceRef)
		return nil, err
	}

	s.log.Info("booking created",
		"booking_id", created.ID,
		"booking_reference", created.BookingReference,
		"partner_id", created.PartnerID,
		"final_amount", created.FinalAmount.String())

	recipient := notification.PartnerRecipient(partner)
	results := []notification.Result{
		s.notifier.Dispatch(ctx, notification.BookingMessage(notification.EventBookingInvoice, created, pkg.Name, recipient, "")),
		s.notifier.Dispatch(ctx, notification.BookingMessage(notification.EventAdminNewBookingAlert, created, pkg.Name, s.cfg.AdminContact, "")),
	}
	return &BookingResult{Booking: created, Notifications: results}, nil
}

// insertWithIdentifiers relies on the unique constraints; the pre-check only saves a round trip.
func (s *BookingService) insertWithIdentifiers(ctx context.Context, b *domain.Booking, now time.Time) error {
	onCollision := func(ids identifier.BookingIdentifiers) {
		s.metrics.IdentifierCollision()
		s.log.Warn("booking identifier collision", "reference", ids.Reference, "invoice", ids.Invoice)
	}

	return s.ids.Assign(ctx, s.cfg.ReferencePrefix, now, s.cfg.MaxIdentifierAttempts, onCollision,
		func(ctx context.Context, ids identifier.BookingIdentifiers) error {
			taken, err := s.bookings.IdentifiersTaken(ctx, ids.Reference, ids.Invoice)
			if err != nil {
				return err
			}
			if taken {
				return identifier.ErrCollision
			}
			if err := b.AssignIdentifiers(ids.Reference, ids.Invoice); err != nil {
				return err
			}
			err = s.bookings.Create(ctx, b)
			if errors.Is(err, repository.ErrDuplicateIdentifier) {
				return identifier.ErrCollision
			}
			return err
		})
}

func (s *BookingService) approvedPartner(ctx context.Context, partnerID int64) (*domain.PartnerVerification, error) {
	v, err := s.verifications.GetByUserID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPartnerNotVerified
		}
		return nil, err
	}
	if !v.IsApproved() {
		return nil, domain.ErrPartnerNotVerified
	}
	return v, nil
}

// TransitionBooking is the administrative decision on one booking.
func (s *BookingService) TransitionBooking(ctx context.Context, input TransitionInput) (*BookingResult, error) {
	if err := checkTransitionInput(input.Status, input.Actor); err != nil {
		return nil, err
	}

	b, err := s.transition(ctx, input.BookingID, input.Status, input.Actor, input.Notes)
	if err != nil {
		return nil, err
	}

	result := s.decisionNotification(ctx, b, input.Notes)
	return &BookingResult{Booking: b, Notifications: []notification.Result{result}}, nil
}

// BulkTransition applies the same decision to every id independently. Per-item failures are reported, not returned.
func (s *BookingService) BulkTransition(ctx context.Context, input BulkTransitionInput) (*BulkTransitionResult, error) {
	if err := checkTransitionInput(input.Status, input.Actor); err != nil {
		return nil, err
	}
	ids := uniqueIDs(input.BookingIDs)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("booking_ids", "at least one booking id is required")
	}

	result := &BulkTransitionResult{
		Updated:       []int64{},
		Failures:      []BulkFailure{},
		Notifications: []notification.Result{},
	}
	for _, id := range ids {
		b, err := s.transition(ctx, id, input.Status, input.Actor, input.Notes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn("bulk transition skipped booking", "booking_id", id, "error", err)
			result.Failures = append(result.Failures, BulkFailure{ID: id, Reason: err.Error(), Kind: domain.KindOf(err)})
			continue
		}
		result.UpdatedCount++
		result.Updated = append(result.Updated, id)
		result.Notifications = append(result.Notifications, s.decisionNotification(ctx, b, input.Notes))
	}

	s.log.Info("bulk transition finished",
		"status", input.Status,
		"requested", len(ids),
		"updated", result.UpdatedCount,
		"failed", len(result.Failures))
	return result, nil
}

// CancelBooking lets the owner withdraw a pending booking. No notification is sent.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, ownerID int64, reason string) (*domain.Booking, error) {
	if ownerID <= 0 {
		return nil, domain.NewValidationError("owner_id", "is required")
	}

	var cancelled *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		entry, err := b.Cancel(ownerID, reason, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.persistTransition(ctx, b, entry); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TransitionApplied("booking", string(cancelled.Status))
	s.log.Info("booking cancelled by partner", "booking_id", cancelled.ID, "partner_id", ownerID)
	return cancelled, nil
}

func (s *BookingService) transition(ctx context.Context, id int64, to domain.BookingStatus, actor domain.Actor, notes string) (*domain.Booking, error) {
	var updated *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		entry, err := b.Transition(to, actor, notes, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.persistTransition(ctx, b, entry); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TransitionApplied("booking", string(to))
	s.log.Info("booking transitioned",
		"booking_id", updated.ID,
		"booking_reference", updated.BookingReference,
		"status", updated.Status,
		"actor", actor.String())
	return updated, nil
}

func (s *BookingService) persistTransition(ctx context.Context, b *domain.Booking, entry domain.StatusHistoryEntry) error {
	if err := s.bookings.SaveStatus(ctx, b); err != nil {
		return err
	}
	return s.ledger.Record(ctx, recorder.FromHistoryEntry(b, entry))
}

// UploadPaymentProof stores the proof and attaches it. Status and history stay unchanged.
func (s *BookingService) UploadPaymentProof(ctx context.Context, input PaymentProofInput) (*BookingResult, error) {
	if err := s.validateProof(input); err != nil {
		return nil, err
	}

	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if current.PartnerID != input.OwnerID {
		return nil, domain.ErrNotOwner
	}

	now := s.now().UTC()
	name := fmt.Sprintf("proof-%d%s", now.UnixNano(), strings.ToLower(filepath.Ext(input.FileName)))
	ref, err := s.files.Save(ctx, fmt.Sprintf("payment-proofs/%d", input.BookingID), name, io.LimitReader(input.Content, s.maxProofSize()))
	if err != nil {
		return nil, fmt.Errorf("%w: store payment proof: %v", domain.ErrDependency, err)
	}

	var updated *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if err := b.AttachPaymentProof(input.OwnerID, ref, now); err != nil {
			return err
		}
		if err := s.bookings.SetPaymentProof(ctx, b.ID, ref, now); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		s.discardFile(ctx, ref)
		return nil, err
	}

	s.log.Info("payment proof uploaded", "booking_id", updated.ID, "ref", ref)
	result := s.notifier.Dispatch(ctx, notification.BookingMessage(
		notification.EventAdminPaymentProofAlert, updated, s.packageName(ctx, updated.PackageID), s.cfg.AdminContact, ""))
	return &BookingResult{Booking: updated, Notifications: []notification.Result{result}}, nil
}

// discardFile drops a file written for a transaction that did not commit.
func (s *BookingService) discardFile(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.files.Remove(context.WithoutCancel(ctx), ref); err != nil {
		s.log.Warn("failed to remove orphaned file", "ref", ref, "error", err)
	}
}

func (s *BookingService) validateProof(input PaymentProofInput) error {
	if input.Content == nil || input.Size <= 0 {
		return domain.NewValidationError("file", "payment proof file is required")
	}
	if input.Size > s.maxProofSize() {
		return domain.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", s.maxProofSize()))
	}
	if len(s.cfg.AllowedProofTypes) == 0 {
		return nil
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(input.ContentType, ";")[0]))
	for _, allowed := range s.cfg.AllowedProofTypes {
		if contentType == allowed {
			return nil
		}
	}
	return domain.NewValidationError("file", fmt.Sprintf("unsupported content type %q", input.ContentType))
}

func (s *BookingService) maxProofSize() int64 {
	if s.cfg.MaxProofSize > 0 {
		return s.cfg.MaxProofSize
	}
	return 5 << 20
}

// RequestPayment reminds the partner to pay a pending booking that has no proof yet.
func (s *BookingService) RequestPayment(ctx context.Context, bookingID int64, actor domain.Actor) (*BookingResult, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminOnly
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("%w: payment can only be requested for pending bookings", domain.ErrInvalidTransition)
	}
	if b.PaymentProof != "" {
		return nil, fmt.Errorf("%w: payment proof already uploaded", domain.ErrInvalidTransition)
	}

	result := s.notifier.Dispatch(ctx, notification.BookingMessage(
		notification.EventPaymentRequest, b, s.packageName(ctx, b.PackageID), s.partnerRecipient(ctx, b.PartnerID), ""))
	return &BookingResult{Booking: b, Notifications: []notification.Result{result}}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64, actor domain.Actor) (*domain.Booking, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.CanBeReadBy(actor) {
		return nil, domain.ErrNotOwner
	}
	return b, nil
}

// GetPaymentProof opens the stored proof. The caller closes the reader.
func (s *BookingService) GetPaymentProof(ctx context.Context, bookingID int64, actor domain.Actor) (io.ReadCloser, string, error) {
	b, err := s.GetBooking(ctx, bookingID, actor)
	if err != nil {
		return nil, "", err
	}
	if b.PaymentProof == "" {
		return nil, "", domain.ErrFileNotFound
	}
	rc, err := s.files.Open(ctx, b.PaymentProof)
	if err != nil {
		return nil, "", err
	}
	return rc, b.PaymentProof, nil
}

func (s *BookingService) decisionNotification(ctx context.Context, b *domain.Booking, notes string) notification.Result {
	event := notification.EventBookingConfirmation
	if b.Status == domain.BookingStatusRejected {
		event = notification.EventBookingRejection
	}
	return s.notifier.Dispatch(ctx, notification.BookingMessage(
		event, b, s.packageName(ctx, b.PackageID), s.partnerRecipient(ctx, b.PartnerID), strings.TrimSpace(notes)))
}

// partnerRecipient never fails: a missing contact only makes the channels report a failure.
func (s *BookingService) partnerRecipient(ctx context.Context, partnerID int64) notification.Recipient {
	v, err := s.verifications.GetByUserID(ctx, partnerID)
	if err != nil {
		s.log.Warn("partner contact lookup failed", "partner_id", partnerID, "error", err)
		return notification.Recipient{}
	}
	return notification.PartnerRecipient(v)
}

func (s *BookingService) packageName(ctx context.Context, packageID int64) string {
	pkg, err := s.pricing.GetPackage(ctx, packageID)
	if err != nil {
		s.log.Warn("package lookup failed", "package_id", packageID, "error", err)
		return fmt.Sprintf("package #%d", packageID)
	}
	return pkg.Name
}

func checkTransitionInput(to domain.BookingStatus, actor domain.Actor) error {
	if !to.IsTerminal() {
		return domain.NewValidationError("status", "must be confirmed or rejected")
	}
	if !actor.IsAdmin() {
		return domain.ErrAdminOnly
	}
	return actor.Validate()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ BookingUseCase = (*BookingService)(nil)
