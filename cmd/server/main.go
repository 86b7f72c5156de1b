package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun/migrate"

	"github.com/finagent/usdthub/adapter"
	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/db"
	"github.com/finagent/usdthub/db/migrations"
	"github.com/finagent/usdthub/lib"
	"github.com/finagent/usdthub/lib/ratelimit"
	"github.com/finagent/usdthub/lib/service"
	"github.com/finagent/usdthub/lib/transport"
	"github.com/finagent/usdthub/oracle"
	"github.com/finagent/usdthub/rabbitmq"
)

func main() {

	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := lib.Logger(c.LogFilePath)

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}

	// Migrate the DB
	startupCtx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	_, err = migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	// Init the payment processor adapters, one per token network
	adapterCfg, err := adapter.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading adapter config: %v", err)
	}
	adapters := map[string]adapter.NetworkAdapter{}
	for _, network := range []string{common.NetworkTRC20, common.NetworkERC20} {
		adp, err := adapter.NewCoinremitterAdapter(network, adapterCfg)
		if err != nil {
			logger.Fatalf("Error initializing the %s adapter: %v", network, err)
		}
		adapters[network] = adp
	}

	priceOracle := oracle.NewClient(c.OracleURL,
		time.Duration(c.PriceTTL)*time.Second,
		time.Duration(c.OracleTimeout)*time.Second)

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// No rabbitmq features will be available in this case.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		rabbitmqClient, err = rabbitmq.Dial(c.RabbitMQUri,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithInvoiceExchange(c.RabbitMQInvoiceExchange),
		)
		if err != nil {
			logger.Fatal(err)
		}

		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
	}

	svc := &service.PaymentService{
		Config:         c,
		DB:             dbConn,
		Logger:         logger,
		Adapters:       adapters,
		AdapterConfig:  adapterCfg,
		Oracle:         priceOracle,
		Limiter:        ratelimit.New(c.RateLimit, c.RateLimitBurst, time.Duration(c.RateLimitWindow)*time.Second),
		InvoicePubSub:  service.NewPubsub(),
		RabbitMQClient: rabbitmqClient,
	}

	//init echo server
	e := transport.InitEcho(c, logger)
	e.Use(transport.CreateLoggingMiddleware(logger))
	transport.RegisterEndpoints(svc, e)

	var backgroundWg sync.WaitGroup
	backGroundCtx, _ := signal.NotifyContext(context.Background(), os.Interrupt)

	// Expire overdue invoices in the background
	backgroundWg.Add(1)
	go func() {
		svc.StartExpirySweepRoutine(backGroundCtx)
		svc.Logger.Info("Expiry sweep routine done")
		backgroundWg.Done()
	}()

	//Start webhook subscription
	if svc.Config.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			svc.StartWebhookSubscription(backGroundCtx)
			svc.Logger.Info("Webhook routine done")
			backgroundWg.Done()
		}()
	}

	//Start rabbit publisher
	if svc.RabbitMQClient != nil {
		backgroundWg.Add(1)
		go func() {
			err = svc.StartRabbitPublishRoutine(backGroundCtx)
			if err != nil && err != context.Canceled {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}

			svc.Logger.Info("Rabbit invoice publisher done")
			backgroundWg.Done()
		}()
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	//Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	svc.Logger.Info("usdthub exiting gracefully. Goodbye.")
}
