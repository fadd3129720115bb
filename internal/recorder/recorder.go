package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/google/uuid"
)

// Event is a workflow transition to be recorded. Records are append-only and ordered by At within a target.
type Event struct {
	TargetType     string
	TargetID       int64
	AffectedUserID int64
	Actor          domain.Actor
	Action         domain.AuditAction
	From           string
	To             string
	Notes          string
	Metadata       map[string]interface{}
	At             time.Time
}

// Recorder persists transition events. Bookings record into their embedded status history,
// verifications into the shared audit log.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

type HistoryAppender interface {
	AppendHistory(ctx context.Context, bookingID int64, entry domain.StatusHistoryEntry) error
}

type AuditLogWriter interface {
	Insert(ctx context.Context, entry *domain.AuditLogEntry) error
}

// BookingLedger records events into a booking's status history.
type BookingLedger struct {
	history HistoryAppender
}

func NewBookingLedger(history HistoryAppender) *BookingLedger {
	return &BookingLedger{history: history}
}

func (l *BookingLedger) Record(ctx context.Context, event Event) error {
	if event.TargetType != domain.TargetBooking {
		return fmt.Errorf("booking ledger cannot record %q events", event.TargetType)
	}
	return l.history.AppendHistory(ctx, event.TargetID, HistoryEntry(event))
}

// HistoryEntry converts an event into the ledger entry shape.
func HistoryEntry(event Event) domain.StatusHistoryEntry {
	entry := domain.StatusHistoryEntry{
		ToStatus:  domain.BookingStatus(event.To),
		ActorType: event.Actor.Kind,
		ActorID:   event.Actor.IDPtr(),
		Timestamp: event.At.UTC(),
	}
	if event.From != "" {
		from := domain.BookingStatus(event.From)
		entry.FromStatus = &from
	}
	if event.Notes != "" {
		notes := event.Notes
		entry.Notes = &notes
	}
	return entry
}

// FromHistoryEntry builds the event for a transition the booking has already applied in memory.
func FromHistoryEntry(b *domain.Booking, entry domain.StatusHistoryEntry) Event {
	event := Event{
		TargetType:     domain.TargetBooking,
		TargetID:       b.ID,
		AffectedUserID: b.PartnerID,
		Actor:          entry.Actor(),
		Action:         actionForBooking(entry.ToStatus),
		To:             string(entry.ToStatus),
		At:             entry.Timestamp,
	}
	if entry.FromStatus != nil {
		event.From = string(*entry.FromStatus)
	}
	if entry.Notes != nil {
		event.Notes = *entry.Notes
	}
	return event
}

func actionForBooking(to domain.BookingStatus) domain.AuditAction {
	switch to {
	case domain.BookingStatusConfirmed:
		return domain.ActionApprove
	case domain.BookingStatusRejected:
		return domain.ActionReject
	default:
		return domain.ActionUpdate
	}
}

// AuditLog records events as rows of the shared audit log.
type AuditLog struct {
	writer AuditLogWriter
	newID  func() string
}

func NewAuditLog(writer AuditLogWriter) *AuditLog {
	return &AuditLog{writer: writer, newID: uuid.NewString}
}

func (l *AuditLog) Record(ctx context.Context, event Event) error {
	return l.writer.Insert(ctx, l.AuditEntry(event))
}

func (l *AuditLog) AuditEntry(event Event) *domain.AuditLogEntry {
	metadata := map[string]interface{}{}
	for k, v := range event.Metadata {
		metadata[k] = v
	}
	if event.From != "" {
		metadata["from_status"] = event.From
	}
	if event.To != "" {
		metadata["to_status"] = event.To
	}

	entry := &domain.AuditLogEntry{
		ID:             l.newID(),
		ActorType:      event.Actor.Kind,
		ActorID:        event.Actor.IDPtr(),
		AffectedUserID: event.AffectedUserID,
		Action:         event.Action,
		TargetType:     event.TargetType,
		TargetID:       event.TargetID,
		Metadata:       metadata,
		CreatedAt:      event.At.UTC(),
	}
	if event.Notes != "" {
		reason := event.Notes
		entry.Reason = &reason
	}
	return entry
}

// FromVerificationChange builds the audit event for an applied verification transition.
func FromVerificationChange(v *domain.PartnerVerification, change domain.VerificationChange) Event {
	return Event{
		TargetType:     domain.TargetVerification,
		TargetID:       v.ID,
		AffectedUserID: v.UserID,
		Actor:          change.Actor,
		Action:         change.Action,
		From:           string(change.From),
		To:             string(change.To),
		Notes:          change.Notes,
		Metadata:       map[string]interface{}{"company_name": v.Profile.CompanyName},
		At:             change.At,
	}
}

var (
	_ Recorder = (*BookingLedger)(nil)
	_ Recorder = (*AuditLog)(nil)
)
