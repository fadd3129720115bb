package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

type CompanyProfile struct {
	CompanyName    string `json:"company_name"`
	CompanyAddress string `json:"company_address"`
	LicenseNumber  string `json:"license_number,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
	ContactPerson  string `json:"contact_person"`
	ContactEmail   string `json:"contact_email"`
	ContactPhone   string `json:"contact_phone"`
}

func (p CompanyProfile) Validate() error {
	switch {
	case strings.TrimSpace(p.CompanyName) == "":
		return NewValidationError("company_name", "is required")
	case strings.TrimSpace(p.ContactPerson) == "":
		return NewValidationError("contact_person", "is required")
	case strings.TrimSpace(p.ContactEmail) == "" && strings.TrimSpace(p.ContactPhone) == "":
		return NewValidationError("contact", "email or phone is required")
	}
	if email := strings.TrimSpace(p.ContactEmail); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return NewValidationError("contact_email", "must be a plain email address")
		}
	}
	return nil
}

// PartnerVerification is the administrative review of a partner's business credentials.
// Unlike bookings, every status can be reached from every other status.
type PartnerVerification struct {
	ID             int64              `json:"id"`
	UserID         int64              `json:"user_id"`
	Profile        CompanyProfile     `json:"profile"`
	CredentialFile string             `json:"credential_file,omitempty"`
	Status         VerificationStatus `json:"status"`
	AdminNotes     string             `json:"admin_notes,omitempty"`
	ApprovedBy     *int64             `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time         `json:"approved_at,omitempty"`
	RejectedBy     *int64             `json:"rejected_by,omitempty"`
	RejectedAt     *time.Time         `json:"rejected_at,omitempty"`
	PendingBy      *int64             `json:"pending_by,omitempty"`
	PendingAt      *time.Time         `json:"pending_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// VerificationChange describes one applied verification transition.
type VerificationChange struct {
	From   VerificationStatus
	To     VerificationStatus
	Actor  Actor
	Notes  string
	Action AuditAction
	At     time.Time
}

func NewPartnerVerification(userID int64, profile CompanyProfile, credentialFile string, now time.Time) (*PartnerVerification, error) {
	if userID <= 0 {
		return nil, NewValidationError("user_id", "must be positive")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &PartnerVerification{
		UserID:         userID,
		Profile:        profile,
		CredentialFile: credentialFile,
		Status:         VerificationPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (v *PartnerVerification) IsApproved() bool {
	return v.Status == VerificationApproved
}

// Resubmit replaces the profile of a pending or rejected verification and moves it back to pending.
func (v *PartnerVerification) Resubmit(profile CompanyProfile, credentialFile string, now time.Time) (VerificationChange, error) {
	if v.Status == VerificationApproved {
		return VerificationChange{}, fmt.Errorf("%w: verification is already approved", ErrInvalidTransition)
	}
	if err := profile.Validate(); err != nil {
		return VerificationChange{}, err
	}
	v.Profile = profile
	if credentialFile != "" {
		v.CredentialFile = credentialFile
	}
	change := v.apply(VerificationPending, Owner(v.UserID), "", ActionSubmit, now)
	v.ApprovedBy, v.ApprovedAt = nil, nil
	v.RejectedBy, v.RejectedAt = nil, nil
	v.PendingBy, v.PendingAt = nil, nil
	return change, nil
}

func (v *PartnerVerification) Approve(actor Actor, notes string, now time.Time) (VerificationChange, error) {
	if err := requireAdmin(actor); err != nil {
		return VerificationChange{}, err
	}
	change := v.apply(VerificationApproved, actor, notes, ActionApprove, now)
	v.ApprovedBy, v.ApprovedAt = actor.IDPtr(), timePtr(now)
	v.RejectedBy, v.RejectedAt = nil, nil
	return change, nil
}

// Reject requires a non-empty reason.
func (v *PartnerVerification) Reject(actor Actor, notes string, now time.Time) (VerificationChange, error) {
	if err := requireAdmin(actor); err != nil {
		return VerificationChange{}, err
	}
	if strings.TrimSpace(notes) == "" {
		return VerificationChange{}, NewValidationError("notes", "rejection reason is required")
	}
	change := v.apply(VerificationRejected, actor, notes, ActionReject, now)
	v.RejectedBy, v.RejectedAt = actor.IDPtr(), timePtr(now)
	v.ApprovedBy, v.ApprovedAt = nil, nil
	return change, nil
}

func (v *PartnerVerification) SetPending(actor Actor, notes string, now time.Time) (VerificationChange, error) {
	if err := requireAdmin(actor); err != nil {
		return VerificationChange{}, err
	}
	change := v.apply(VerificationPending, actor, notes, ActionPending, now)
	v.ApprovedBy, v.ApprovedAt = nil, nil
	v.RejectedBy, v.RejectedAt = nil, nil
	v.PendingBy, v.PendingAt = actor.IDPtr(), timePtr(now)
	return change, nil
}

func (v *PartnerVerification) apply(to VerificationStatus, actor Actor, notes string, action AuditAction, now time.Time) VerificationChange {
	notes = strings.TrimSpace(notes)
	change := VerificationChange{From: v.Status, To: to, Actor: actor, Notes: notes, Action: action, At: now}
	v.Status = to
	if notes != "" {
		v.AdminNotes = notes
	}
	v.UpdatedAt = now
	return change
}

// CheckInvariants verifies that the decision columns agree with the status.
func (v *PartnerVerification) CheckInvariants() error {
	approved := v.ApprovedAt != nil || v.ApprovedBy != nil
	rejected := v.RejectedAt != nil || v.RejectedBy != nil
	switch v.Status {
	case VerificationApproved:
		if !approved || rejected {
			return fmt.Errorf("approved verification %d has inconsistent decision columns", v.ID)
		}
	case VerificationRejected:
		if !rejected || approved {
			return fmt.Errorf("rejected verification %d has inconsistent decision columns", v.ID)
		}
	case VerificationPending:
		if approved || rejected {
			return fmt.Errorf("pending verification %d still carries a decision", v.ID)
		}
	default:
		return fmt.Errorf("unknown verification status %q", v.Status)
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
