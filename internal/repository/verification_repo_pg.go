package repository

import (
	"context"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VerificationRepository interface {
	Create(ctx context.Context, v *domain.PartnerVerification) error
	GetByID(ctx context.Context, id int64) (*domain.PartnerVerification, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.PartnerVerification, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.PartnerVerification, error)
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*domain.PartnerVerification, error)
	Save(ctx context.Context, v *domain.PartnerVerification) error
}

type PGVerificationRepository struct {
	db *pgxpool.Pool
}

func NewVerificationRepository(db *pgxpool.Pool) VerificationRepository {
	return &PGVerificationRepository{db: db}
}

const verificationColumns = `id, user_id, company_name, company_address, license_number, tax_id,
	contact_person, contact_email, contact_phone, credential_file, status, admin_notes,
	approved_by, approved_at, rejected_by, rejected_at, pending_by, pending_at, created_at, updated_at`

func (r *PGVerificationRepository) Create(ctx context.Context, v *domain.PartnerVerification) error {
	p := v.Profile
	err := querier(ctx, r.db).QueryRow(ctx, `INSERT INTO partner_verifications (user_id, company_name, company_address,
		license_number, tax_id, contact_person, contact_email, contact_phone, credential_file, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		v.UserID, p.CompanyName, p.CompanyAddress, p.LicenseNumber, p.TaxID,
		p.ContactPerson, p.ContactEmail, p.ContactPhone, v.CredentialFile, v.Status).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return domain.NewValidationError("user_id", "a verification already exists for this partner")
	}
	return err
}

func (r *PGVerificationRepository) GetByID(ctx context.Context, id int64) (*domain.PartnerVerification, error) {
	return scanVerification(querier(ctx, r.db).QueryRow(ctx,
		`SELECT `+verificationColumns+` FROM partner_verifications WHERE id = $1`, id))
}

func (r *PGVerificationRepository) GetByUserID(ctx context.Context, userID int64) (*domain.PartnerVerification, error) {
	return scanVerification(querier(ctx, r.db).QueryRow(ctx,
		`SELECT `+verificationColumns+` FROM partner_verifications WHERE user_id = $1`, userID))
}

func (r *PGVerificationRepository) GetForUpdate(ctx context.Context, id int64) (*domain.PartnerVerification, error) {
	return scanVerification(querier(ctx, r.db).QueryRow(ctx,
		`SELECT `+verificationColumns+` FROM partner_verifications WHERE id = $1 FOR UPDATE`, id))
}

func (r *PGVerificationRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*domain.PartnerVerification, error) {
	return scanVerification(querier(ctx, r.db).QueryRow(ctx,
		`SELECT `+verificationColumns+` FROM partner_verifications WHERE user_id = $1 FOR UPDATE`, userID))
}

func (r *PGVerificationRepository) Save(ctx context.Context, v *domain.PartnerVerification) error {
	p := v.Profile
	cmd, err := querier(ctx, r.db).Exec(ctx, `UPDATE partner_verifications SET
		company_name = $1, company_address = $2, license_number = $3, tax_id = $4,
		contact_person = $5, contact_email = $6, contact_phone = $7, credential_file = $8,
		status = $9, admin_notes = $10,
		approved_by = $11, approved_at = $12, rejected_by = $13, rejected_at = $14,
		pending_by = $15, pending_at = $16, updated_at = now()
		WHERE id = $17`,
		p.CompanyName, p.CompanyAddress, p.LicenseNumber, p.TaxID,
		p.ContactPerson, p.ContactEmail, p.ContactPhone, v.CredentialFile,
		v.Status, v.AdminNotes,
		v.ApprovedBy, v.ApprovedAt, v.RejectedBy, v.RejectedAt,
		v.PendingBy, v.PendingAt, v.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrVerificationNotFound
	}
	return nil
}

func scanVerification(row pgx.Row) (*domain.PartnerVerification, error) {
	var v domain.PartnerVerification
	p := &v.Profile
	err := row.Scan(&v.ID, &v.UserID, &p.CompanyName, &p.CompanyAddress, &p.LicenseNumber, &p.TaxID,
		&p.ContactPerson, &p.ContactEmail, &p.ContactPhone, &v.CredentialFile, &v.Status, &v.AdminNotes,
		&v.ApprovedBy, &v.ApprovedAt, &v.RejectedBy, &v.RejectedAt, &v.PendingBy, &v.PendingAt,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrVerificationNotFound)
	}
	return &v, nil
}

var _ VerificationRepository = (*PGVerificationRepository)(nil)
