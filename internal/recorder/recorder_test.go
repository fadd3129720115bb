package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHistory struct {
	entries map[int64][]domain.StatusHistoryEntry
}

func (m *memoryHistory) AppendHistory(_ context.Context, bookingID int64, entry domain.StatusHistoryEntry) error {
	if m.entries == nil {
		m.entries = map[int64][]domain.StatusHistoryEntry{}
	}
	m.entries[bookingID] = append(m.entries[bookingID], entry)
	return nil
}

type memoryAudit struct {
	rows []*domain.AuditLogEntry
}

func (m *memoryAudit) Insert(_ context.Context, entry *domain.AuditLogEntry) error {
	m.rows = append(m.rows, entry)
	return nil
}

// recorded is what each backend persisted, reduced to the fields both share.
type recorded struct {
	to    string
	actor domain.Actor
	notes string
	at    time.Time
}

func TestRecorderContract(t *testing.T) {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	events := func(targetType string) []Event {
		return []Event{
			{TargetType: targetType, TargetID: 1, AffectedUserID: 9, Actor: domain.Owner(9), Action: domain.ActionSubmit, To: "pending", Notes: "created", At: base},
			{TargetType: targetType, TargetID: 1, AffectedUserID: 9, Actor: domain.Admin(2), Action: domain.ActionReject, From: "pending", To: "rejected", Notes: "incomplete documents", At: base.Add(time.Minute)},
		}
	}

	backends := []struct {
		name       string
		targetType string
		build      func() (Recorder, func() []recorded)
	}{
		{
			name:       "booking ledger",
			targetType: domain.TargetBooking,
			build: func() (Recorder, func() []recorded) {
				h := &memoryHistory{}
				return NewBookingLedger(h), func() []recorded {
					var out []recorded
					for _, e := range h.entries[1] {
						r := recorded{to: string(e.ToStatus), actor: e.Actor(), at: e.Timestamp}
						if e.Notes != nil {
							r.notes = *e.Notes
						}
						out = append(out, r)
					}
					return out
				}
			},
		},
		{
			name:       "audit log",
			targetType: domain.TargetVerification,
			build: func() (Recorder, func() []recorded) {
				a := &memoryAudit{}
				return NewAuditLog(a), func() []recorded {
					var out []recorded
					for _, row := range a.rows {
						r := recorded{to: row.Metadata["to_status"].(string), actor: domain.Actor{Kind: row.ActorType}, at: row.CreatedAt}
						if row.ActorID != nil {
							r.actor.ID = *row.ActorID
						}
						if row.Reason != nil {
							r.notes = *row.Reason
						}
						out = append(out, r)
					}
					return out
				}
			},
		},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			rec, read := b.build()
			for _, e := range events(b.targetType) {
				require.NoError(t, rec.Record(context.Background(), e))
			}

			got := read()
			require.Len(t, got, 2)
			assert.Equal(t, recorded{to: "pending", actor: domain.Owner(9), notes: "created", at: base}, got[0])
			assert.Equal(t, recorded{to: "rejected", actor: domain.Admin(2), notes: "incomplete documents", at: base.Add(time.Minute)}, got[1])
		})
	}
}

func TestBookingLedger_RejectsForeignTargets(t *testing.T) {
	l := NewBookingLedger(&memoryHistory{})
	err := l.Record(context.Background(), Event{TargetType: domain.TargetVerification})
	assert.Error(t, err)
}

func TestFromHistoryEntry_RoundTrip(t *testing.T) {
	b, err := domain.NewBooking(domain.NewBookingParams{
		PartnerID:       9,
		Package:         domain.Package{ID: 1},
		TravelerCount:   1,
		TravelerDetails: []domain.TravelerDetail{{Name: "A", Email: "a@x.test"}},
	}, time.Now())
	require.NoError(t, err)
	b.ID = 33

	entry, err := b.Transition(domain.BookingStatusConfirmed, domain.Admin(1), "verified", time.Now())
	require.NoError(t, err)

	event := FromHistoryEntry(b, entry)
	assert.Equal(t, int64(33), event.TargetID)
	assert.Equal(t, domain.ActionApprove, event.Action)
	assert.Equal(t, entry, HistoryEntry(event))
}

func TestAuditLog_AuditEntry(t *testing.T) {
	l := NewAuditLog(&memoryAudit{})
	l.newID = func() string { return "fixed" }

	v := &domain.PartnerVerification{ID: 4, UserID: 8, Profile: domain.CompanyProfile{CompanyName: "Acme"}}
	entry := l.AuditEntry(FromVerificationChange(v, domain.VerificationChange{
		From: domain.VerificationPending, To: domain.VerificationApproved,
		Actor: domain.Admin(1), Action: domain.ActionApprove, At: time.Now(),
	}))

	assert.Equal(t, "fixed", entry.ID)
	assert.Equal(t, domain.ActionApprove, entry.Action)
	assert.Equal(t, domain.TargetVerification, entry.TargetType)
	assert.Equal(t, int64(8), entry.AffectedUserID)
	assert.Nil(t, entry.Reason)
	assert.Equal(t, "Acme", entry.Metadata["company_name"])
	assert.Equal(t, "approved", entry.Metadata["to_status"])
}
