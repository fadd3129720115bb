package invoice

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/storage"
	"github.com/shopspring/decimal"
)

type Artifact struct {
	URL  string
	Path string
}

type Details struct {
	Booking     *domain.Booking
	PackageName string
	CompanyName string
	IssuedAt    time.Time
}

type Renderer interface {
	Generate(ctx context.Context, d Details) (Artifact, error)
}

const invoiceDir = "invoices"

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`INVOICE {{.Booking.InvoiceNumber}}
Issued: {{.IssuedAt.Format "2006-01-02"}}
Booking: {{.Booking.BookingReference}}
Bill to: {{.CompanyName}} (partner #{{.Booking.PartnerID}})

Package: {{.PackageName}}
Travelers: {{.Booking.TravelerCount}}
Unit price: {{.UnitPrice}}
{{range $i, $t := .Booking.TravelerDetails}}  {{inc $i}}. {{$t.Name}}
{{end}}
Total:        {{.Booking.TotalAmount.StringFixed 2}}
B2B discount: {{.Booking.B2BDiscount.StringFixed 2}}
Amount due:   {{.Booking.FinalAmount.StringFixed 2}}
`))

// TextRenderer writes plain text invoices into the file store.
type TextRenderer struct {
	store storage.FileStore
}

func NewTextRenderer(store storage.FileStore) *TextRenderer {
	return &TextRenderer{store: store}
}

// Generate fails with domain.ErrInvoiceFailed so callers abort the surrounding transaction.
func (r *TextRenderer) Generate(ctx context.Context, d Details) (Artifact, error) {
	b := d.Booking
	if b == nil || b.InvoiceNumber == "" {
		return Artifact{}, fmt.Errorf("%w: booking has no invoice number", domain.ErrInvoiceFailed)
	}
	if d.IssuedAt.IsZero() {
		d.IssuedAt = b.CreatedAt
	}

	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, struct {
		Details
		UnitPrice string
	}{Details: d, UnitPrice: unitPrice(b).StringFixed(2)})
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", domain.ErrInvoiceFailed, err)
	}

	ref, err := r.store.Save(ctx, invoiceDir, b.InvoiceNumber+".txt", &buf)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", domain.ErrInvoiceFailed, err)
	}
	return Artifact{URL: r.store.URL(ref), Path: ref}, nil
}

func unitPrice(b *domain.Booking) decimal.Decimal {
	if b.TravelerCount <= 0 {
		return decimal.Zero
	}
	return b.TotalAmount.Div(decimal.NewFromInt(int64(b.TravelerCount)))
}

var _ Renderer = (*TextRenderer)(nil)
