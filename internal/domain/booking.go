package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
)

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusRejected
}

func (s BookingStatus) IsValid() bool {
	return s == BookingStatusPending || s.IsTerminal()
}

// ParseTargetStatus accepts only the statuses a transition may move a booking to.
func ParseTargetStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsTerminal() {
		return "", NewValidationError("status", fmt.Sprintf("target status must be %q or %q, got %q", BookingStatusConfirmed, BookingStatusRejected, s))
	}
	return status, nil
}

type TravelerDetail struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	PassportExpiry string `json:"passport_expiry,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
}

func (t TravelerDetail) validate(i int) error {
	field := fmt.Sprintf("travelers[%d]", i)
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError(field+".name", "is required")
	}
	if strings.TrimSpace(t.Email) == "" && strings.TrimSpace(t.Phone) == "" {
		return NewValidationError(field, "email or phone is required")
	}
	return nil
}

// StatusHistoryEntry is one immutable ledger record of a booking transition.
type StatusHistoryEntry struct {
	FromStatus *BookingStatus `json:"from_status"`
	ToStatus   BookingStatus  `json:"to_status"`
	ActorType  ActorKind      `json:"actor_type"`
	ActorID    *int64         `json:"actor_id"`
	Notes      *string        `json:"notes"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (e StatusHistoryEntry) Actor() Actor {
	a := Actor{Kind: e.ActorType}
	if e.ActorID != nil {
		a.ID = *e.ActorID
	}
	return a
}

func newHistoryEntry(from *BookingStatus, to BookingStatus, actor Actor, notes string, at time.Time) StatusHistoryEntry {
	e := StatusHistoryEntry{
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actor.Kind,
		ActorID:    actor.IDPtr(),
		Timestamp:  at.UTC(),
	}
	if notes != "" {
		n := notes
		e.Notes = &n
	}
	return e
}

// StatusHistory is an append-only ordered sequence. Entries are never modified or removed.
type StatusHistory struct {
	entries []StatusHistoryEntry
}

func NewStatusHistory(entries ...StatusHistoryEntry) StatusHistory {
	return StatusHistory{entries: append([]StatusHistoryEntry(nil), entries...)}
}

func (h *StatusHistory) Append(e StatusHistoryEntry) {
	h.entries = append(h.entries, e)
}

func (h StatusHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy in chronological order.
func (h StatusHistory) Entries() []StatusHistoryEntry {
	return append([]StatusHistoryEntry(nil), h.entries...)
}

func (h StatusHistory) Last() (StatusHistoryEntry, bool) {
	if len(h.entries) == 0 {
		return StatusHistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

func (h StatusHistory) MarshalJSON() ([]byte, error) {
	if h.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.entries)
}

func (h *StatusHistory) UnmarshalJSON(data []byte) error {
	var entries []StatusHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	h.entries = entries
	return nil
}

type Booking struct {
	ID               int64            `json:"id"`
	BookingReference string           `json:"booking_reference"`
	InvoiceNumber    string           `json:"invoice_number"`
	PartnerID        int64            `json:"partner_id"`
	PackageID        int64            `json:"package_id"`
	TravelerCount    int              `json:"traveler_count"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	B2BDiscount      decimal.Decimal  `json:"b2b_discount"`
	FinalAmount      decimal.Decimal  `json:"final_amount"`
	TravelerDetails  []TravelerDetail `json:"traveler_details"`
	SpecialRequests  string           `json:"special_requests,omitempty"`
	Status           BookingStatus    `json:"status"`
	PaymentProof     string           `json:"payment_proof,omitempty"`
	PaymentProofAt   *time.Time       `json:"payment_proof_uploaded_at,omitempty"`
	InvoiceURL       string           `json:"invoice_url,omitempty"`
	InvoicePath      string           `json:"-"`
	AdminNotes       string           `json:"admin_notes,omitempty"`
	ProcessedBy      *int64           `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	History          StatusHistory    `json:"status_history"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type NewBookingParams struct {
	PartnerID       int64
	Package         Package
	UnitPrice       decimal.Decimal
	UnitSavings     decimal.Decimal
	TravelerCount   int
	TravelerDetails []TravelerDetail
	SpecialRequests string
}

// ValidateBookingInput checks the request shape before anything is looked up or written.
func ValidateBookingInput(travelerCount int, travelers []TravelerDetail) error {
	if travelerCount < 1 {
		return NewValidationError("traveler_count", "must be at least 1")
	}
	if len(travelers) != travelerCount {
		return NewValidationError("travelers", fmt.Sprintf("expected %d traveler records, got %d", travelerCount, len(travelers)))
	}
	for i, t := range travelers {
		if err := t.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// PriceBooking computes total = unit*count, discount = savings*count, final = total - discount.
func PriceBooking(unitPrice, unitSavings decimal.Decimal, count int) (total, discount, final decimal.Decimal, err error) {
	if unitPrice.IsNegative() || unitSavings.IsNegative() {
		return total, discount, final, NewValidationError("price", "package price and savings must be non-negative")
	}
	n := decimal.NewFromInt(int64(count))
	total = unitPrice.Mul(n)
	discount = unitSavings.Mul(n)
	final = total.Sub(discount)
	if final.IsNegative() {
		return total, discount, final, NewValidationError("price", "discount exceeds total amount")
	}
	return total, discount, final, nil
}

// NewBooking builds a pending booking with its initial ledger entry. Identifiers are assigned separately.
func NewBooking(p NewBookingParams, now time.Time) (*Booking, error) {
	if err := ValidateBookingInput(p.TravelerCount, p.TravelerDetails); err != nil {
		return nil, err
	}
	if p.Package.Quota > 0 && p.TravelerCount > p.Package.Quota {
		return nil, NewValidationError("traveler_count", fmt.Sprintf("exceeds package capacity of %d", p.Package.Quota))
	}
	total, discount, final, err := PriceBooking(p.UnitPrice, p.UnitSavings, p.TravelerCount)
	if err != nil {
		return nil, err
	}

	b := &Booking{
		PartnerID:       p.PartnerID,
		PackageID:       p.Package.ID,
		TravelerCount:   p.TravelerCount,
		TotalAmount:     total,
		B2BDiscount:     discount,
		FinalAmount:     final,
		TravelerDetails: append([]TravelerDetail(nil), p.TravelerDetails...),
		SpecialRequests: strings.TrimSpace(p.SpecialRequests),
		Status:          BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.History.Append(newHistoryEntry(nil, BookingStatusPending, Owner(p.PartnerID), "created", now))
	return b, nil
}

// AssignIdentifiers sets the reference and invoice number. It may only succeed once per booking.
func (b *Booking) AssignIdentifiers(reference, invoice string) error {
	if b.ID != 0 {
		return fmt.Errorf("%w: identifiers of a stored booking are immutable", ErrInvalidTransition)
	}
	if reference == "" || invoice == "" {
		return NewValidationError("identifiers", "reference and invoice number are required")
	}
	b.BookingReference = reference
	b.InvoiceNumber = invoice
	return nil
}

// Transition moves a pending booking to a terminal status and returns the appended ledger entry.
func (b *Booking) Transition(to BookingStatus, actor Actor, notes string, now time.Time) (StatusHistoryEntry, error) {
	if !to.IsTerminal() {
		return StatusHistoryEntry{}, NewValidationError("status", fmt.Sprintf("cannot transition to %q", to))
	}
	if err := actor.Validate(); err != nil {
		return StatusHistoryEntry{}, err
	}
	if b.Status.IsTerminal() {
		return StatusHistoryEntry{}, ErrAlreadyTerminal
	}

	from := b.Status
	notes = strings.TrimSpace(notes)
	entry := newHistoryEntry(&from, to, actor, notes, now)
	b.History.Append(entry)
	b.Status = to
	b.ProcessedBy = actor.IDPtr()
	processedAt := now
	b.ProcessedAt = &processedAt
	b.UpdatedAt = now
	if notes != "" {
		b.appendAdminNote(notes, now)
	}
	return entry, nil
}

// Cancel is the owner's self-service rejection of a still pending booking.
func (b *Booking) Cancel(ownerID int64, reason string, now time.Time) (StatusHistoryEntry, error) {
	if ownerID != b.PartnerID {
		return StatusHistoryEntry{}, ErrNotOwner
	}
	if b.Status != BookingStatusPending {
		return StatusHistoryEntry{}, ErrNotPending
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Cancelled by partner"
	}
	return b.Transition(BookingStatusRejected, Owner(ownerID), reason, now)
}

// AttachPaymentProof records the uploaded proof. It is not a status transition and adds no ledger entry.
func (b *Booking) AttachPaymentProof(ownerID int64, ref string, now time.Time) error {
	if ownerID != b.PartnerID {
		return ErrNotOwner
	}
	if ref == "" {
		return NewValidationError("payment_proof", "file reference is required")
	}
	b.PaymentProof = ref
	uploadedAt := now
	b.PaymentProofAt = &uploadedAt
	b.UpdatedAt = now
	return nil
}

// CanBeReadBy reports whether actor may see this booking.
func (b *Booking) CanBeReadBy(actor Actor) bool {
	return actor.IsAdmin() || (actor.Kind == ActorOwner && actor.ID == b.PartnerID)
}

func (b *Booking) appendAdminNote(note string, now time.Time) {
	line := fmt.Sprintf("[%s] %s", now.Format("2006-01-02 15:04"), note)
	if b.AdminNotes == "" {
		b.AdminNotes = line
		return
	}
	b.AdminNotes += "\n" + line
}

// CheckInvariants verifies the amount and ledger invariants of a booking.
func (b *Booking) CheckInvariants() error {
	if !b.FinalAmount.Equal(b.TotalAmount.Sub(b.B2BDiscount)) {
		return fmt.Errorf("final amount %s != total %s - discount %s", b.FinalAmount, b.TotalAmount, b.B2BDiscount)
	}
	if b.FinalAmount.IsNegative() || b.B2BDiscount.IsNegative() {
		return fmt.Errorf("negative amounts on booking %s", b.BookingReference)
	}
	last, ok := b.History.Last()
	if !ok {
		return fmt.Errorf("booking %s has no status history", b.BookingReference)
	}
	if last.ToStatus != b.Status {
		return fmt.Errorf("last history status %s != booking status %s", last.ToStatus, b.Status)
	}
	return nil
}
