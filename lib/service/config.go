package service

type Config struct {
	DatabaseUri             string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN               string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath             string  `envconfig:"LOG_FILE_PATH"`
	Host                    string  `envconfig:"HOST" default:"localhost:8080"`
	Port                    int     `envconfig:"PORT" default:"8080"`

	// DefaultRateLimit caps overall requests/second at the transport,
	// RateLimit/RateLimitBurst throttle per caller key over the window.
	DefaultRateLimit int `envconfig:"DEFAULT_RATE_LIMIT" default:"50"`
	RateLimit        int `envconfig:"RATE_LIMIT" default:"60"`
	RateLimitBurst   int `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitWindow  int `envconfig:"RATE_LIMIT_WINDOW" default:"60"` // in seconds

	MinPaymentAmount float64 `envconfig:"MIN_PAYMENT_AMOUNT" default:"0.1"`
	MaxPaymentAmount float64 `envconfig:"MAX_PAYMENT_AMOUNT" default:"10000"`
	PaymentTimeout   int     `envconfig:"PAYMENT_TIMEOUT" default:"3600"` // invoice expiry, in seconds

	OracleURL     string `envconfig:"DIA_ORACLE_URL" default:"https://api.diadata.org/v1/assetQuotation/Ethereum/0xdAC17F958D2ee523a2206206994597C13D831ec7"`
	OracleTimeout int    `envconfig:"ORACLE_TIMEOUT" default:"30"` // in seconds
	PriceTTL      int    `envconfig:"PRICE_TTL" default:"60"`      // in seconds

	ExpirySweepInterval int `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"60"` // in seconds

	// WebhookUrl receives outbound invoice-update notifications
	WebhookUrl string `envconfig:"WEBHOOK_URL"`

	RabbitMQUri             string `envconfig:"RABBITMQ_URI"`
	RabbitMQInvoiceExchange string `envconfig:"RABBITMQ_INVOICE_EXCHANGE" default:"usdthub_invoice"`
}
