package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/internal/recorder"
	"github.com/Domenick1991/partnerbooking/internal/repository"
	"github.com/Domenick1991/partnerbooking/internal/storage"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/Domenick1991/partnerbooking/pkg/metrics"
)

type VerificationUseCase interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.PartnerVerification, error)
	Approve(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error)
	Reject(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error)
	SetPending(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error)
	Get(ctx context.Context, id int64, actor domain.Actor) (*domain.PartnerVerification, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, msg notification.Message) notification.Result
}

type SubmitInput struct {
	UserID      int64
	Profile     domain.CompanyProfile
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Result is the verification after a decision plus the notifications it produced (none for SetPending).
type Result struct {
	Verification  *domain.PartnerVerification `json:"verification"`
	Notifications []notification.Result       `json:"notifications"`
}

type VerificationService struct {
	tx            repository.Transactor
	verifications repository.VerificationRepository
	audit         recorder.Recorder
	files         storage.FileStore
	notifier      Notifier
	maxFileSize   int64
	log           logger.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

type VerificationServiceOption func(*VerificationService)

func WithLogger(log logger.Logger) VerificationServiceOption {
	return func(s *VerificationService) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) VerificationServiceOption {
	return func(s *VerificationService) {
		s.metrics = m
	}
}

func WithMaxFileSize(n int64) VerificationServiceOption {
	return func(s *VerificationService) {
		s.maxFileSize = n
	}
}

func NewVerificationService(
	tx repository.Transactor,
	verifications repository.VerificationRepository,
	audit recorder.Recorder,
	files storage.FileStore,
	notifier Notifier,
	opts ...VerificationServiceOption,
) *VerificationService {
	service := &VerificationService{
		tx:            tx,
		verifications: verifications,
		audit:         audit,
		files:         files,
		notifier:      notifier,
		maxFileSize:   5 << 20,
		log:           logger.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Submit registers a partner for business access or resubmits a rejected application.
func (s *VerificationService) Submit(ctx context.Context, input SubmitInput) (*domain.PartnerVerification, error) {
	if input.UserID <= 0 {
		return nil, domain.NewValidationError("user_id", "is required")
	}
	if err := input.Profile.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var credential string
	if input.Content != nil {
		if input.Size <= 0 || input.Size > s.maxFileSize {
			return nil, domain.NewValidationError("credential_file", fmt.Sprintf("size must be between 1 and %d bytes", s.maxFileSize))
		}
		name := fmt.Sprintf("credential-%d%s", now.UnixNano(), strings.ToLower(filepath.Ext(input.FileName)))
		ref, err := s.files.Save(ctx, fmt.Sprintf("credentials/%d", input.UserID), name, io.LimitReader(input.Content, s.maxFileSize))
		if err != nil {
			return nil, fmt.Errorf("%w: store credential file: %v", domain.ErrDependency, err)
		}
		credential = ref
	}

	var submitted *domain.PartnerVerification
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.verifications.GetByUserIDForUpdate(ctx, input.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if credential == "" {
				return domain.NewValidationError("credential_file", "is required")
			}
			v, err = domain.NewPartnerVerification(input.UserID, input.Profile, credential, now)
			if err != nil {
				return err
			}
			if err := s.verifications.Create(ctx, v); err != nil {
				return err
			}
			submitted = v
			return s.audit.Record(ctx, recorder.FromVerificationChange(v, domain.VerificationChange{
				To:     domain.VerificationPending,
				Actor:  domain.Owner(input.UserID),
				Action: domain.ActionSubmit,
				At:     now,
			}))
		case err != nil:
			return err
		}

		change, err := v.Resubmit(input.Profile, credential, now)
		if err != nil {
			return err
		}
		if err := s.verifications.Save(ctx, v); err != nil {
			return err
		}
		submitted = v
		return s.audit.Record(ctx, recorder.FromVerificationChange(v, change))
	})
	if err != nil {
		if credential != "" {
			if rmErr := s.files.Remove(context.WithoutCancel(ctx), credential); rmErr != nil {
				s.log.Warn("failed to remove orphaned credential file", "ref", credential, "error", rmErr)
			}
		}
		return nil, err
	}

	s.log.Info("verification submitted", "verification_id", submitted.ID, "user_id", submitted.UserID)
	return submitted, nil
}

func (s *VerificationService) Approve(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error) {
	v, change, err := s.decide(ctx, id, func(v *domain.PartnerVerification, now time.Time) (domain.VerificationChange, error) {
		return v.Approve(actor, notes, now)
	})
	if err != nil {
		return nil, err
	}
	result := s.notifier.Dispatch(ctx, notification.VerificationMessage(
		notification.EventPartnerApproval, v, notification.PartnerRecipient(v), change.Notes))
	return &Result{Verification: v, Notifications: []notification.Result{result}}, nil
}

// Reject requires a reason; the rejection notification carries it.
func (s *VerificationService) Reject(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error) {
	v, change, err := s.decide(ctx, id, func(v *domain.PartnerVerification, now time.Time) (domain.VerificationChange, error) {
		return v.Reject(actor, notes, now)
	})
	if err != nil {
		return nil, err
	}
	result := s.notifier.Dispatch(ctx, notification.VerificationMessage(
		notification.EventPartnerRejection, v, notification.PartnerRecipient(v), change.Notes))
	return &Result{Verification: v, Notifications: []notification.Result{result}}, nil
}

func (s *VerificationService) SetPending(ctx context.Context, id int64, actor domain.Actor, notes string) (*Result, error) {
	v, _, err := s.decide(ctx, id, func(v *domain.PartnerVerification, now time.Time) (domain.VerificationChange, error) {
		return v.SetPending(actor, notes, now)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Verification: v, Notifications: []notification.Result{}}, nil
}

// decide locks the verification, applies fn, persists it and writes the audit entry in one transaction.
func (s *VerificationService) decide(
	ctx context.Context,
	id int64,
	fn func(*domain.PartnerVerification, time.Time) (domain.VerificationChange, error),
) (*domain.PartnerVerification, domain.VerificationChange, error) {
	var (
		decided *domain.PartnerVerification
		change  domain.VerificationChange
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.verifications.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		change, err = fn(v, s.now().UTC())
		if err != nil {
			return err
		}
		if err := s.verifications.Save(ctx, v); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, recorder.FromVerificationChange(v, change)); err != nil {
			return err
		}
		decided = v
		return nil
	})
	if err != nil {
		return nil, domain.VerificationChange{}, err
	}

	s.metrics.TransitionApplied("verification", string(change.To))
	s.log.Info("verification updated",
		"verification_id", decided.ID,
		"from", change.From,
		"to", change.To,
		"actor", change.Actor.String())
	return decided, change, nil
}

// Get returns a verification to an admin or to the partner it belongs to.
func (s *VerificationService) Get(ctx context.Context, id int64, actor domain.Actor) (*domain.PartnerVerification, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	v, err := s.verifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Kind == domain.ActorOwner && actor.ID == v.UserID) {
		return nil, fmt.Errorf("%w: verification belongs to another partner", domain.ErrForbidden)
	}
	return v, nil
}

var _ VerificationUseCase = (*VerificationService)(nil)
