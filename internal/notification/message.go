package notification

import (
	"strconv"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
)

type Event string

const (
	EventBookingInvoice         Event = "booking-invoice"
	EventBookingConfirmation    Event = "booking-confirmation"
	EventBookingRejection       Event = "booking-rejection"
	EventPaymentRequest         Event = "payment-request"
	EventAdminNewBookingAlert   Event = "admin-new-booking-alert"
	EventAdminPaymentProofAlert Event = "admin-payment-proof-alert"
	EventPartnerApproval        Event = "partner-approval"
	EventPartnerRejection       Event = "partner-rejection"
)

func (e Event) IsValid() bool {
	_, ok := templates[e]
	return ok
}

type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Message is the payload handed to every channel. It is also the JSON body published on the primary channel.
type Message struct {
	ID         string                 `json:"id"`
	Event      Event                  `json:"event"`
	TemplateID string                 `json:"template_id"`
	Recipient  Recipient              `json:"recipient"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Key groups messages about the same entity on one Kafka partition.
func (m Message) Key() string {
	if ref, ok := m.Data["booking_reference"].(string); ok && ref != "" {
		return ref
	}
	if id, ok := m.Data["verification_id"]; ok {
		return "verification-" + toString(id)
	}
	return m.ID
}

type Outcome struct {
	Channel   string `json:"channel"`
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message"`
}

// Result aggregates one dispatch. Success is always true: channel failures are informational.
type Result struct {
	Event     Event   `json:"event"`
	Success   bool    `json:"success"`
	Primary   Outcome `json:"primary"`
	Secondary Outcome `json:"secondary"`
}

func NewMessage(event Event, to Recipient, data map[string]interface{}) Message {
	if data == nil {
		data = map[string]interface{}{}
	}
	name := to.Name
	if name == "" {
		name = "Partner"
	}
	data["recipient_name"] = name
	return Message{
		Event:      event,
		TemplateID: string(event),
		Recipient:  to,
		Data:       data,
	}
}

// BookingMessage builds a booking event. notes carries the admin decision note or rejection reason.
func BookingMessage(event Event, b *domain.Booking, packageName string, to Recipient, notes string) Message {
	data := map[string]interface{}{
		"booking_id":        b.ID,
		"booking_reference": b.BookingReference,
		"invoice_number":    b.InvoiceNumber,
		"partner_id":        b.PartnerID,
		"package_id":        b.PackageID,
		"package_name":      packageName,
		"traveler_count":    b.TravelerCount,
		"total_amount":      b.TotalAmount.StringFixed(2),
		"b2b_discount":      b.B2BDiscount.StringFixed(2),
		"final_amount":      b.FinalAmount.StringFixed(2),
		"status":            string(b.Status),
	}
	if b.InvoiceURL != "" {
		data["invoice_url"] = b.InvoiceURL
	}
	if notes != "" {
		data["notes"] = notes
	}
	return NewMessage(event, to, data)
}

func VerificationMessage(event Event, v *domain.PartnerVerification, to Recipient, notes string) Message {
	data := map[string]interface{}{
		"verification_id": v.ID,
		"user_id":         v.UserID,
		"company_name":    v.Profile.CompanyName,
		"status":          string(v.Status),
	}
	if notes != "" {
		data["notes"] = notes
	}
	return NewMessage(event, to, data)
}

// PartnerRecipient reads contact details from a verification profile.
func PartnerRecipient(v *domain.PartnerVerification) Recipient {
	name := v.Profile.ContactPerson
	if name == "" {
		name = v.Profile.CompanyName
	}
	return Recipient{Name: name, Email: v.Profile.ContactEmail, Phone: v.Profile.ContactPhone}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
