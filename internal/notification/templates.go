package notification

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(event Event, subject, body string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(string(event) + ".subject").Parse(subject)),
		body:    template.Must(template.New(string(event) + ".body").Parse(body)),
	}
}

var templates = map[Event]messageTemplate{
	EventBookingInvoice: mustTemplate(EventBookingInvoice,
		"Invoice {{.invoice_number}} for booking {{.booking_reference}}",
		`Hello {{.recipient_name}},

Your booking {{.booking_reference}} for {{.package_name}} ({{.traveler_count}} travelers) has been received.
Total: {{.total_amount}}
B2B discount: {{.b2b_discount}}
Amount due: {{.final_amount}}
Invoice: {{.invoice_number}}{{if .invoice_url}} {{.invoice_url}}{{end}}

Please upload your payment proof to continue.`),

	EventBookingConfirmation: mustTemplate(EventBookingConfirmation,
		"Booking {{.booking_reference}} confirmed",
		`Hello {{.recipient_name}},

Your booking {{.booking_reference}} for {{.package_name}} has been confirmed.{{if .notes}}
Notes: {{.notes}}{{end}}`),

	EventBookingRejection: mustTemplate(EventBookingRejection,
		"Booking {{.booking_reference}} rejected",
		`Hello {{.recipient_name}},

Unfortunately your booking {{.booking_reference}} for {{.package_name}} has been rejected.{{if .notes}}
Reason: {{.notes}}{{end}}`),

	EventPaymentRequest: mustTemplate(EventPaymentRequest,
		"Payment requested for booking {{.booking_reference}}",
		`Hello {{.recipient_name}},

Please complete the payment of {{.final_amount}} for booking {{.booking_reference}} (invoice {{.invoice_number}}) and upload the payment proof.`),

	EventAdminNewBookingAlert: mustTemplate(EventAdminNewBookingAlert,
		"New B2B booking {{.booking_reference}}",
		`New booking {{.booking_reference}} from partner #{{.partner_id}}.
Package: {{.package_name}}
Travelers: {{.traveler_count}}
Amount due: {{.final_amount}}`),

	EventAdminPaymentProofAlert: mustTemplate(EventAdminPaymentProofAlert,
		"Payment proof uploaded for {{.booking_reference}}",
		`Partner #{{.partner_id}} uploaded a payment proof for booking {{.booking_reference}} (amount due {{.final_amount}}).`),

	EventPartnerApproval: mustTemplate(EventPartnerApproval,
		"Partner account approved",
		`Hello {{.recipient_name}},

The business account of {{.company_name}} has been approved. You can now create B2B bookings.{{if .notes}}
Notes: {{.notes}}{{end}}`),

	EventPartnerRejection: mustTemplate(EventPartnerRejection,
		"Partner account verification rejected",
		`Hello {{.recipient_name}},

The verification of {{.company_name}} has been rejected.
Reason: {{.notes}}

You may update your documents and submit again.`),
}

// Render produces the subject and plain text body of a message.
func Render(msg Message) (subject, body string, err error) {
	tpl, ok := templates[Event(msg.TemplateID)]
	if !ok {
		tpl, ok = templates[msg.Event]
	}
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", msg.TemplateID)
	}

	var buf bytes.Buffer
	if err := tpl.subject.Execute(&buf, msg.Data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tpl.body.Execute(&buf, msg.Data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, buf.String(), nil
}
