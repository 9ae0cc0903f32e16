package proof

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
)

const uploadFolder = "payment-proofs"

type UploadRequest struct {
	TransferReference string
	Filename          string
	MimeType          string
	Size              int64
	File              io.Reader
}

type Service struct {
	db       *gorm.DB
	proofs   domain.ProofRepository
	payments domain.PaymentRepository
	bookings domain.BookingRepository
	ledger   *payment.Service
	recorder *events.Recorder
	store    domain.ObjectStore
	locks    *lockmap.LockMap
	clock    domain.Clock
	log      *logrus.Entry
}

func NewService(
	db *gorm.DB,
	proofs domain.ProofRepository,
	payments domain.PaymentRepository,
	bookings domain.BookingRepository,
	ledger *payment.Service,
	recorder *events.Recorder,
	store domain.ObjectStore,
	locks *lockmap.LockMap,
	clock domain.Clock,
) *Service {
	return &Service{
		db:       db,
		proofs:   proofs,
		payments: payments,
		bookings: bookings,
		ledger:   ledger,
		recorder: recorder,
		store:    store,
		locks:    locks,
		clock:    clock,
		log:      logrus.WithField("component", "proof"),
	}
}

// Upload stores a proof-of-payment file for a pending bank transfer and
// queues it for admin verification.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*domain.PaymentProof, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	paymentRecord, err := s.payments.FindByTransferReference(ctx, req.TransferReference)
	if err != nil {
		return nil, domain.ErrInternal("failed to resolve payment")
	}
	if paymentRecord == nil {
		return nil, domain.ErrNotFound("payment", req.TransferReference)
	}
	if paymentRecord.Method != domain.MethodBankTransfer {
		return nil, domain.ErrValidation("proofs can only be attached to bank transfer payments")
	}
	if paymentRecord.Status.Terminal() {
		return nil, domain.ErrIllegalPaymentTransition(paymentRecord.Status, domain.PaymentStatusProcessing)
	}

	fileURL, err := s.store.Upload(ctx, req.File, uploadFolder)
	if err != nil {
		s.log.WithError(err).Warn("proof upload to object store failed")
		return nil, domain.ErrInternal("failed to store proof file")
	}

	proof := &domain.PaymentProof{
		ID:                uuid.NewString(),
		PaymentID:         paymentRecord.ID,
		TransferReference: req.TransferReference,
		FileURL:           fileURL,
		FileSize:          req.Size,
		MimeType:          req.MimeType,
		Status:            domain.ProofStatusPendingVerification,
	}

	var returnErr error
	err = s.locks.Do(paymentRecord.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			updated, bindErr := s.ledger.BindProofInTx(ctx, tx, paymentRecord.ID, fileURL)
			if bindErr != nil {
				returnErr = bindErr
				return bindErr
			}
			if err := s.proofs.CreateInTx(ctx, tx, proof); err != nil {
				returnErr = domain.ErrInternal("failed to save proof")
				return err
			}
			booking, err := s.bookings.FindByIDForUpdate(ctx, tx, updated.BookingID)
			if err != nil || booking == nil {
				returnErr = domain.ErrInternal("failed to load booking")
				return returnErr
			}
			if err := s.recorder.RecordInTx(ctx, tx, domain.EventProofUploaded, booking, updated); err != nil {
				returnErr = domain.ErrInternal("failed to record event")
				return err
			}
			return nil
		})
	})
	if err != nil {
		if returnErr != nil {
			return nil, returnErr
		}
		return nil, domain.ErrInternal("proof upload failed")
	}
	return proof, nil
}

// Verify accepts a proof, settles its payment and confirms the booking,
// the same way a successful gateway verification would.
func (s *Service) Verify(ctx context.Context, proofID, adminID, notes string) (*domain.PaymentProof, error) {
	return s.review(ctx, proofID, adminID, notes, true)
}

// Reject marks a proof rejected. The payment stays open so the customer
// can upload a corrected proof.
func (s *Service) Reject(ctx context.Context, proofID, adminID, notes string) (*domain.PaymentProof, error) {
	return s.review(ctx, proofID, adminID, notes, false)
}

func (s *Service) Get(ctx context.Context, proofID string) (*domain.PaymentProof, error) {
	proof, err := s.proofs.FindByID(ctx, proofID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load proof")
	}
	if proof == nil {
		return nil, domain.ErrNotFound("proof", proofID)
	}
	return proof, nil
}

func (s *Service) ListByPayment(ctx context.Context, paymentID string) ([]domain.PaymentProof, error) {
	proofs, err := s.proofs.FindByPayment(ctx, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list proofs")
	}
	return proofs, nil
}

func (s *Service) review(ctx context.Context, proofID, adminID, notes string, accept bool) (*domain.PaymentProof, error) {
	current, err := s.Get(ctx, proofID)
	if err != nil {
		return nil, err
	}
	paymentRecord, err := s.payments.FindByID(ctx, current.PaymentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to resolve payment")
	}
	if paymentRecord == nil {
		return nil, domain.ErrNotFound("payment", current.PaymentID)
	}

	var result *domain.PaymentProof
	var returnErr error

	lockErr := s.locks.Do(paymentRecord.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			proof, err := s.proofs.FindByIDForUpdate(ctx, tx, proofID)
			if err != nil {
				returnErr = domain.ErrInternal("failed to load proof")
				return err
			}
			if proof == nil {
				returnErr = domain.ErrNotFound("proof", proofID)
				return returnErr
			}
			if proof.Status != domain.ProofStatusPendingVerification {
				returnErr = domain.ErrValidation("proof has already been reviewed")
				return returnErr
			}

			now := s.clock.Now()
			proof.VerifiedBy = adminID
			proof.VerifiedAt = &now
			proof.Notes = notes

			if accept {
				proof.Status = domain.ProofStatusVerified
				settled, booking, completeErr := s.ledger.CompleteFromProofInTx(ctx, tx, proof.PaymentID)
				if completeErr != nil {
					returnErr = completeErr
					return completeErr
				}
				if err := s.recorder.RecordInTx(ctx, tx, domain.EventProofVerified, booking, settled); err != nil {
					returnErr = domain.ErrInternal("failed to record event")
					return err
				}
			} else {
				proof.Status = domain.ProofStatusRejected
			}

			if err := s.proofs.UpdateInTx(ctx, tx, proof); err != nil {
				returnErr = domain.ErrInternal("failed to update proof")
				return err
			}
			result = proof
			return nil
		})
	})
	if lockErr != nil {
		if returnErr != nil {
			return nil, returnErr
		}
		return nil, domain.ErrInternal("proof review failed")
	}
	return result, nil
}

func validateUpload(req UploadRequest) error {
	var reasons []string

	if req.TransferReference == "" {
		reasons = append(reasons, "transfer_reference is required")
	}
	if req.File == nil {
		reasons = append(reasons, "file is required")
	}
	if req.Size <= 0 || req.Size > domain.ProofMaxSizeBytes {
		reasons = append(reasons, fmt.Sprintf("file size must be between 1 byte and %d bytes", domain.ProofMaxSizeBytes))
	}

	extensions, ok := domain.ProofAllowedMimeTypes[req.MimeType]
	if !ok {
		reasons = append(reasons, "file type must be jpeg, png, gif or pdf")
	} else {
		ext := strings.ToLower(filepath.Ext(req.Filename))
		matched := false
		for _, allowed := range extensions {
			if ext == allowed {
				matched = true
				break
			}
		}
		if !matched {
			reasons = append(reasons, "file extension does not match its content type")
		}
	}

	if len(reasons) > 0 {
		return domain.ErrProofRejected(strings.Join(reasons, "; "))
	}
	return nil
}
