package application

import (
	"context"

	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/booking"
	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/application/proof"
	"github.com/stanmart1/skylyt-core/internal/application/reconciler"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/cache"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gateways"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/repositories"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/notify"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/rates"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/storage"
	"github.com/stanmart1/skylyt-core/internal/utils/config"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
)

// Container wires repositories, gateways and services together and owns
// the background loops.
type Container struct {
	Bookings     *booking.Service
	Payments     *payment.Service
	Proofs       *proof.Service
	Engine       *currency.Engine
	BankAccounts domain.BankAccountRepository

	dispatcher *events.Dispatcher
	reconciler *reconciler.Reconciler
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	clock := domain.SystemClock{}
	locks := lockmap.New()

	bookingRepo := repositories.NewBookingRepo(db)
	paymentRepo := repositories.NewPaymentRepo(db)
	proofRepo := repositories.NewProofRepo(db)
	currencyRepo := repositories.NewCurrencyRepo(db)
	webhookRepo := repositories.NewWebhookEventRepo(db)
	idempotencyRepo := repositories.NewIdempotencyRepo(db)
	outboxRepo := repositories.NewOutboxRepo(db)
	bankAccountRepo := repositories.NewBankAccountRepo(db)

	rateSource := rates.NewProvider(cfg.RateProviderURL, cfg.RateProviderKey, cfg.RateTimeout)
	engine := currency.NewEngine(currencyRepo, rateSource, cache.NewMemory(), cfg.RateCacheTTL, cfg.RateTimeout)

	store, err := storage.NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.ObjectStoreTimeout)
	if err != nil {
		return nil, err
	}

	registry := gateways.NewRegistry(
		gateways.NewStripeAdapter(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.FrontendURL, cfg.GatewayTimeout, clock),
		gateways.NewPaystackAdapter(cfg.PaystackSecretKey, cfg.GatewayTimeout),
		gateways.NewFlutterwaveAdapter(cfg.FlutterwaveSecretKey, cfg.FlutterwaveWebhookHash, cfg.GatewayTimeout),
		gateways.NewPaypalAdapter(cfg.PaypalClientID, cfg.PaypalClientSecret, cfg.PaypalSandbox, cfg.GatewayTimeout),
		gateways.NewBankTransferAdapter(bankAccountRepo, domain.BankInstructions{
			BankName:      cfg.BankName,
			AccountName:   cfg.BankAccountName,
			AccountNumber: cfg.BankAccountNumber,
		}),
	)

	recorder, err := events.NewRecorder(outboxRepo)
	if err != nil {
		return nil, err
	}

	bookingSvc := booking.NewService(db, bookingRepo, engine, recorder, locks, clock)
	paymentSvc := payment.NewService(
		db, paymentRepo, bookingRepo, idempotencyRepo, webhookRepo,
		registry, engine, recorder, locks, clock,
		cfg.IdempotencyKeyTTL, cfg.FrontendURL,
	)
	proofSvc := proof.NewService(db, proofRepo, paymentRepo, bookingRepo, paymentSvc, recorder, store, locks, clock)

	dispatcher := events.NewDispatcher(outboxRepo, notify.NewLogNotifier(), clock, cfg.DispatchInterval)
	recon := reconciler.New(
		db, cfg, paymentRepo, bookingRepo, outboxRepo, idempotencyRepo,
		paymentSvc, bookingSvc, engine, recorder, clock,
	)

	return &Container{
		Bookings:     bookingSvc,
		Payments:     paymentSvc,
		Proofs:       proofSvc,
		Engine:       engine,
		BankAccounts: bankAccountRepo,
		dispatcher:   dispatcher,
		reconciler:   recon,
	}, nil
}

// Start launches the outbox dispatcher and the reconciliation loops.
// They stop when ctx is cancelled.
func (c *Container) Start(ctx context.Context) {
	go c.dispatcher.Run(ctx)
	go c.reconciler.Run(ctx)
}
