package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort         string
	FrontendURL     string
	GracefulTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	StripeSecretKey        string
	StripeWebhookSecret    string
	PaystackSecretKey      string
	FlutterwaveSecretKey   string
	FlutterwaveWebhookHash string
	PaypalClientID         string
	PaypalClientSecret     string
	PaypalSandbox          bool

	RateProviderURL string
	RateProviderKey string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	BankName          string
	BankAccountName   string
	BankAccountNumber string

	IdempotencyKeyTTL    time.Duration
	RateCacheTTL         time.Duration
	PaymentPendingTTL    time.Duration
	PaymentProcessingTTL time.Duration
	BookingStaleTTL      time.Duration

	VerifyInterval      time.Duration
	ExpireInterval      time.Duration
	BookingSweep        time.Duration
	RateRefreshInterval time.Duration
	ReminderInterval    time.Duration
	ReportInterval      time.Duration
	DispatchInterval    time.Duration

	GatewayTimeout     time.Duration
	RateTimeout        time.Duration
	ObjectStoreTimeout time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:         getEnv("APP_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		GracefulTimeout: parseDuration(getEnv("GRACEFUL_TIMEOUT", "5s"), 5*time.Second),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "skylyt"),
		DBPassword: getEnv("DB_PASSWORD", "skylyt123"),
		DBName:     getEnv("DB_NAME", "skylyt_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		StripeSecretKey:        getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:    getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PaystackSecretKey:      getEnv("PAYSTACK_SECRET_KEY", ""),
		FlutterwaveSecretKey:   getEnv("FLUTTERWAVE_SECRET_KEY", ""),
		FlutterwaveWebhookHash: getEnv("FLUTTERWAVE_WEBHOOK_HASH", ""),
		PaypalClientID:         getEnv("PAYPAL_CLIENT_ID", ""),
		PaypalClientSecret:     getEnv("PAYPAL_CLIENT_SECRET", ""),
		PaypalSandbox:          parseBool(getEnv("PAYPAL_SANDBOX", "true"), true),

		RateProviderURL: getEnv("RATE_PROVIDER_URL", "https://api.exchangerate.host/latest"),
		RateProviderKey: getEnv("RATE_PROVIDER_KEY", ""),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		BankName:          getEnv("BANK_NAME", ""),
		BankAccountName:   getEnv("BANK_ACCOUNT_NAME", ""),
		BankAccountNumber: getEnv("BANK_ACCOUNT_NUMBER", ""),

		IdempotencyKeyTTL:    parseDuration(getEnv("IDEMPOTENCY_KEY_TTL", "24h"), 24*time.Hour),
		RateCacheTTL:         parseDuration(getEnv("RATE_CACHE_TTL", "1h"), time.Hour),
		PaymentPendingTTL:    parseDuration(getEnv("PAYMENT_PENDING_TTL", "1h"), time.Hour),
		PaymentProcessingTTL: parseDuration(getEnv("PAYMENT_PROCESSING_TTL", "24h"), 24*time.Hour),
		BookingStaleTTL:      parseDuration(getEnv("BOOKING_STALE_TTL", "168h"), 7*24*time.Hour),

		VerifyInterval:      parseDuration(getEnv("VERIFY_INTERVAL", "60s"), time.Minute),
		ExpireInterval:      parseDuration(getEnv("EXPIRE_INTERVAL", "5m"), 5*time.Minute),
		BookingSweep:        parseDuration(getEnv("BOOKING_SWEEP_INTERVAL", "24h"), 24*time.Hour),
		RateRefreshInterval: parseDuration(getEnv("RATE_REFRESH_INTERVAL", "1h"), time.Hour),
		ReminderInterval:    parseDuration(getEnv("REMINDER_INTERVAL", "1h"), time.Hour),
		ReportInterval:      parseDuration(getEnv("REPORT_INTERVAL", "24h"), 24*time.Hour),
		DispatchInterval:    parseDuration(getEnv("DISPATCH_INTERVAL", "5s"), 5*time.Second),

		GatewayTimeout:     parseDuration(getEnv("GATEWAY_TIMEOUT", "15s"), 15*time.Second),
		RateTimeout:        parseDuration(getEnv("RATE_TIMEOUT", "10s"), 10*time.Second),
		ObjectStoreTimeout: parseDuration(getEnv("OBJECT_STORE_TIMEOUT", "30s"), 30*time.Second),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
