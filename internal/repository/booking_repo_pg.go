package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	IdentifiersTaken(ctx context.Context, reference, invoice string) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	SaveStatus(ctx context.Context, booking *domain.Booking) error
	AppendHistory(ctx context.Context, bookingID int64, entry domain.StatusHistoryEntry) error
	SetInvoice(ctx context.Context, bookingID int64, url, path string) error
	SetPaymentProof(ctx context.Context, bookingID int64, ref string, at time.Time) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_reference, invoice_number, partner_id, package_id, traveler_count,
	total_amount, b2b_discount, final_amount, traveler_details, special_requests, status,
	payment_proof, payment_proof_at, invoice_url, invoice_path, admin_notes, processed_by, processed_at,
	status_history, created_at, updated_at`

// Create inserts the booking inside a savepoint so a unique violation does not poison the caller's transaction.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	travelers, err := json.Marshal(booking.TravelerDetails)
	if err != nil {
		return fmt.Errorf("marshal traveler details: %w", err)
	}
	history, err := json.Marshal(booking.History)
	if err != nil {
		return fmt.Errorf("marshal status history: %w", err)
	}

	sp, err := querier(ctx, r.db).Begin(ctx)
	if err != nil {
		return err
	}
	defer sp.Rollback(ctx)

	err = sp.QueryRow(ctx, `INSERT INTO b2b_bookings (booking_reference, invoice_number, partner_id, package_id,
		traveler_count, total_amount, b2b_discount, final_amount, traveler_details, special_requests, status, status_history)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		booking.BookingReference, booking.InvoiceNumber, booking.PartnerID, booking.PackageID,
		booking.TravelerCount, booking.TotalAmount.String(), booking.B2BDiscount.String(), booking.FinalAmount.String(),
		travelers, booking.SpecialRequests, booking.Status, history).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentifier
		}
		return err
	}
	return sp.Commit(ctx)
}

func (r *PGBookingRepository) IdentifiersTaken(ctx context.Context, reference, invoice string) (bool, error) {
	var taken bool
	err := querier(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM b2b_bookings WHERE booking_reference = $1 OR invoice_number = $2)`,
		reference, invoice).Scan(&taken)
	return taken, err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `SELECT `+bookingColumns+` FROM b2b_bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	row := querier(ctx, r.db).QueryRow(ctx, `SELECT `+bookingColumns+` FROM b2b_bookings WHERE id = $1 FOR UPDATE`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) SaveStatus(ctx context.Context, booking *domain.Booking) error {
	cmd, err := querier(ctx, r.db).Exec(ctx, `UPDATE b2b_bookings
		SET status = $1, processed_by = $2, processed_at = $3, admin_notes = $4, updated_at = now()
		WHERE id = $5`,
		booking.Status, booking.ProcessedBy, booking.ProcessedAt, booking.AdminNotes, booking.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// AppendHistory concatenates one entry onto the JSONB array; the stored history is never rewritten.
func (r *PGBookingRepository) AppendHistory(ctx context.Context, bookingID int64, entry domain.StatusHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	cmd, err := querier(ctx, r.db).Exec(ctx, `UPDATE b2b_bookings
		SET status_history = status_history || jsonb_build_array($1::jsonb), updated_at = now()
		WHERE id = $2`, data, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) SetInvoice(ctx context.Context, bookingID int64, url, path string) error {
	cmd, err := querier(ctx, r.db).Exec(ctx,
		`UPDATE b2b_bookings SET invoice_url = $1, invoice_path = $2, updated_at = now() WHERE id = $3`,
		url, path, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) SetPaymentProof(ctx context.Context, bookingID int64, ref string, at time.Time) error {
	cmd, err := querier(ctx, r.db).Exec(ctx,
		`UPDATE b2b_bookings SET payment_proof = $1, payment_proof_at = $2, updated_at = now() WHERE id = $3`,
		ref, at, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b         domain.Booking
		travelers []byte
		history   []byte
	)
	err := row.Scan(&b.ID, &b.BookingReference, &b.InvoiceNumber, &b.PartnerID, &b.PackageID, &b.TravelerCount,
		&b.TotalAmount, &b.B2BDiscount, &b.FinalAmount, &travelers, &b.SpecialRequests, &b.Status,
		&b.PaymentProof, &b.PaymentProofAt, &b.InvoiceURL, &b.InvoicePath, &b.AdminNotes, &b.ProcessedBy, &b.ProcessedAt,
		&history, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	if err := json.Unmarshal(travelers, &b.TravelerDetails); err != nil {
		return nil, fmt.Errorf("decode traveler details of booking %d: %w", b.ID, err)
	}
	if err := json.Unmarshal(history, &b.History); err != nil {
		return nil, fmt.Errorf("decode status history of booking %d: %w", b.ID, err)
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
