package proof

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/booking"
	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/cache"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/repositories"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type noRates struct{}

func (noRates) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	return nil, nil
}

type memoryStore struct {
	uploads int
	fail    error
}

func (m *memoryStore) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.uploads++
	return fmt.Sprintf("https://files.test/%s/%d", folder, m.uploads), nil
}

type bankAdapter struct{}

func (bankAdapter) Method() domain.PaymentMethod { return domain.MethodBankTransfer }

func (bankAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	return &domain.GatewayHandle{
		GatewayReference: "bank-" + intent.PaymentReference,
		Instructions: &domain.BankInstructions{
			BankName:          "Zenith Bank",
			AccountName:       "Skylyt Travels Ltd",
			AccountNumber:     "1012345678",
			TransferReference: intent.TransferReference,
		},
	}, nil
}

func (bankAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	return &domain.VerifyResult{Status: domain.GatewayStatusPending}, nil
}

func (bankAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	return &domain.RefundResult{Status: domain.GatewayStatusSuccess}, nil
}

func (bankAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	return nil, domain.ErrGatewayProtocol("bank_transfer", "bank transfers have no webhooks")
}

type bankResolver struct{}

func (bankResolver) Get(method domain.PaymentMethod) (domain.GatewayAdapter, bool) {
	if method == domain.MethodBankTransfer {
		return bankAdapter{}, true
	}
	return nil, false
}

func (bankResolver) ByName(name string) (domain.GatewayAdapter, bool) { return nil, false }

type harness struct {
	db        *gorm.DB
	svc       *Service
	store     *memoryStore
	payments  domain.PaymentRepository
	booksRepo domain.BookingRepository
	proofs    domain.ProofRepository
	outbox    domain.OutboxRepository

	booking *domain.Booking
	payment *domain.Payment
}

// newHarness seeds a bank-transfer payment awaiting settlement so each
// test starts from an uploadable state.
func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)

	currencyRepo := repositories.NewCurrencyRepo(db)
	ctx := context.Background()
	for _, c := range []domain.Currency{
		{Code: "NGN", Symbol: "₦", RateToBase: decimal.NewFromInt(1), Active: true},
		{Code: "USD", Symbol: "$", RateToBase: decimal.NewFromInt(1500), Active: true},
	} {
		seed := c
		require.NoError(t, currencyRepo.Upsert(ctx, &seed))
	}
	engine := currency.NewEngine(currencyRepo, noRates{}, cache.NewMemory(), time.Minute, time.Second)

	outboxRepo := repositories.NewOutboxRepo(db)
	recorder, err := events.NewRecorder(outboxRepo)
	require.NoError(t, err)

	clock := fixedClock{now: time.Now().UTC()}
	locks := lockmap.New()

	bookingRepo := repositories.NewBookingRepo(db)
	paymentRepo := repositories.NewPaymentRepo(db)
	proofRepo := repositories.NewProofRepo(db)

	bookingSvc := booking.NewService(db, bookingRepo, engine, recorder, locks, clock)
	ledger := payment.NewService(
		db,
		paymentRepo,
		bookingRepo,
		repositories.NewIdempotencyRepo(db),
		repositories.NewWebhookEventRepo(db),
		bankResolver{},
		engine,
		recorder,
		locks,
		clock,
		24*time.Hour,
		"https://api.test/v1/payments/callback",
	)

	store := &memoryStore{}
	svc := NewService(db, proofRepo, paymentRepo, bookingRepo, ledger, recorder, store, locks, clock)

	b, err := bookingSvc.Create(ctx, booking.CreateRequest{
		OwnerID:       "owner-1",
		Type:          domain.BookingTypeHotel,
		Currency:      "USD",
		Amount:        decimal.NewFromInt(150),
		StartDate:     clock.now.Add(48 * time.Hour),
		EndDate:       clock.now.Add(96 * time.Hour),
		CustomerName:  "Ada Obi",
		CustomerEmail: "ada@example.com",
	})
	require.NoError(t, err)

	res, err := ledger.Initialize(ctx, "proof-harness-key", payment.InitializeRequest{
		BookingID: b.ID,
		Method:    domain.MethodBankTransfer,
	})
	require.NoError(t, err)

	return &harness{
		db:        db,
		svc:       svc,
		store:     store,
		payments:  paymentRepo,
		booksRepo: bookingRepo,
		proofs:    proofRepo,
		outbox:    outboxRepo,
		booking:   b,
		payment:   res.Payment,
	}
}

func validUpload(h *harness) UploadRequest {
	return UploadRequest{
		TransferReference: h.payment.TransferReference,
		Filename:          "receipt.pdf",
		MimeType:          "application/pdf",
		Size:              120 << 10,
		File:              strings.NewReader("%PDF-1.4 receipt"),
	}
}

func (h *harness) reloadPayment(t *testing.T) *domain.Payment {
	t.Helper()
	p, err := h.payments.FindByID(context.Background(), h.payment.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (h *harness) reloadBooking(t *testing.T) *domain.Booking {
	t.Helper()
	b, err := h.booksRepo.FindByID(context.Background(), h.booking.ID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func (h *harness) eventCount(t *testing.T, name string) int {
	t.Helper()
	undelivered, err := h.outbox.FindUndelivered(context.Background(), 100)
	require.NoError(t, err)
	count := 0
	for _, e := range undelivered {
		if e.Name == name {
			count++
		}
	}
	return count
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok, "expected *domain.AppError, got %T: %v", err, err)
	return appErr.Code
}

func TestUploadProof(t *testing.T) {
	h := newHarness(t)

	proof, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)

	assert.Equal(t, domain.ProofStatusPendingVerification, proof.Status)
	assert.Equal(t, h.payment.ID, proof.PaymentID)
	assert.NotEmpty(t, proof.FileURL)
	assert.Equal(t, 1, h.store.uploads)

	p := h.reloadPayment(t)
	assert.Equal(t, domain.PaymentStatusProcessing, p.Status)
	assert.Equal(t, proof.FileURL, p.ProofURL)
	assert.Equal(t, 1, h.eventCount(t, domain.EventProofUploaded))
}

func TestUploadValidation(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name   string
		mutate func(*UploadRequest)
	}{
		{"missing reference", func(r *UploadRequest) { r.TransferReference = "" }},
		{"missing file", func(r *UploadRequest) { r.File = nil }},
		{"zero size", func(r *UploadRequest) { r.Size = 0 }},
		{"oversized", func(r *UploadRequest) { r.Size = domain.ProofMaxSizeBytes + 1 }},
		{"unsupported type", func(r *UploadRequest) { r.MimeType = "application/zip" }},
		{"extension mismatch", func(r *UploadRequest) { r.Filename = "receipt.exe" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validUpload(h)
			tc.mutate(&req)
			_, err := h.svc.Upload(context.Background(), req)
			assert.Equal(t, "PROOF_REJECTED", appCode(t, err))
		})
	}

	assert.Equal(t, 0, h.store.uploads, "rejected uploads must not reach the store")
}

func TestUploadUnknownReference(t *testing.T) {
	h := newHarness(t)

	req := validUpload(h)
	req.TransferReference = "TRF0000000000"
	_, err := h.svc.Upload(context.Background(), req)
	assert.Equal(t, "NOT_FOUND", appCode(t, err))
}

func TestUploadStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.fail = fmt.Errorf("cloud unreachable")

	_, err := h.svc.Upload(context.Background(), validUpload(h))
	assert.Equal(t, "INTERNAL_ERROR", appCode(t, err))
	assert.Equal(t, domain.PaymentStatusPending, h.reloadPayment(t).Status)
}

func TestVerifyProofSettlesPayment(t *testing.T) {
	h := newHarness(t)

	uploaded, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)

	reviewed, err := h.svc.Verify(context.Background(), uploaded.ID, "admin-1", "matches the bank statement")
	require.NoError(t, err)

	assert.Equal(t, domain.ProofStatusVerified, reviewed.Status)
	assert.Equal(t, "admin-1", reviewed.VerifiedBy)
	require.NotNil(t, reviewed.VerifiedAt)

	assert.Equal(t, domain.PaymentStatusCompleted, h.reloadPayment(t).Status)
	assert.Equal(t, domain.BookingStatusConfirmed, h.reloadBooking(t).Status)
	assert.Equal(t, 1, h.eventCount(t, domain.EventProofVerified))
	assert.Equal(t, 1, h.eventCount(t, domain.EventBookingConfirmed))
}

func TestRejectProofKeepsPaymentOpen(t *testing.T) {
	h := newHarness(t)

	uploaded, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)

	reviewed, err := h.svc.Reject(context.Background(), uploaded.ID, "admin-1", "amount unreadable")
	require.NoError(t, err)

	assert.Equal(t, domain.ProofStatusRejected, reviewed.Status)
	assert.Equal(t, "amount unreadable", reviewed.Notes)

	// The payment stays PROCESSING so a corrected proof can follow.
	assert.Equal(t, domain.PaymentStatusProcessing, h.reloadPayment(t).Status)
	assert.Equal(t, domain.BookingStatusPaymentPending, h.reloadBooking(t).Status)
	assert.Equal(t, 0, h.eventCount(t, domain.EventProofVerified))
}

func TestReviewTwiceRejected(t *testing.T) {
	h := newHarness(t)

	uploaded, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)

	_, err = h.svc.Verify(context.Background(), uploaded.ID, "admin-1", "")
	require.NoError(t, err)

	_, err = h.svc.Reject(context.Background(), uploaded.ID, "admin-2", "")
	assert.Equal(t, "VALIDATION_ERROR", appCode(t, err))
	assert.Equal(t, domain.PaymentStatusCompleted, h.reloadPayment(t).Status)
}

func TestUploadAfterSettlementRejected(t *testing.T) {
	h := newHarness(t)

	uploaded, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)
	_, err = h.svc.Verify(context.Background(), uploaded.ID, "admin-1", "")
	require.NoError(t, err)

	_, err = h.svc.Upload(context.Background(), validUpload(h))
	assert.Equal(t, "ILLEGAL_PAYMENT_TRANSITION", appCode(t, err))
}

func TestSecondProofAfterRejection(t *testing.T) {
	h := newHarness(t)

	first, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)
	_, err = h.svc.Reject(context.Background(), first.ID, "admin-1", "wrong account")
	require.NoError(t, err)

	second, err := h.svc.Upload(context.Background(), validUpload(h))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	listed, err := h.svc.ListByPayment(context.Background(), h.payment.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
