package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte
	CSRFSecure      bool

	FrontendBaseURL string

	Payment PaymentConfig

	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaEmailTopic  string

	SMTP SMTPConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatusTTL     time.Duration

	ESURL        string
	ESUser       string
	ESPassword   string
	ESAuditIndex string
}

type PaymentConfig struct {
	HMACSecret     string
	APIURL         string
	SecretKey      string
	PublicKey      string
	CheckoutURL    string
	IntegrationIDs []int
	Currency       string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Load reads .env when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "fulfillment"),
		Env:         EnvDefault("ENV", "production"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		CSRFSecure:      EnvBoolDefault("CSRF_SECURE", false),

		FrontendBaseURL: EnvDefault("FRONTEND_BASE_URL", ""),

		Payment: PaymentConfig{
			HMACSecret:     os.Getenv("PAYMENT_HMAC_SECRET"),
			APIURL:         EnvDefault("PAYMENT_API_URL", "https://accept.paymob.com"),
			SecretKey:      os.Getenv("PAYMENT_SECRET_KEY"),
			PublicKey:      os.Getenv("PAYMENT_PUBLIC_KEY"),
			CheckoutURL:    EnvDefault("PAYMENT_CHECKOUT_URL", "https://accept.paymob.com/unifiedcheckout/"),
			IntegrationIDs: Ints(os.Getenv("PAYMENT_INTEGRATION_IDS")),
			Currency:       EnvDefault("PAYMENT_CURRENCY", "EGP"),
		},

		KafkaBrokers:     CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaEventsTopic: EnvDefault("KAFKA_EVENTS_TOPIC", "order_events"),
		KafkaEmailTopic:  os.Getenv("KAFKA_EMAIL_TOPIC"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     EnvIntDefault("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     EnvDefault("SMTP_FROM", "no-reply@localhost"),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),
		StatusTTL:     EnvDurationDefault("ORDER_STATUS_TTL", 10*time.Minute),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ESAuditIndex: EnvDefault("ES_AUDIT_INDEX", "order_history"),
	}
}

func (c Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}
