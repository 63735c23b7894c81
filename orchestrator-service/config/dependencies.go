package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/draftea/order-saga/orchestrator-service/application"
	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/orchestrator-service/handlers"
	"github.com/draftea/order-saga/orchestrator-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type closer interface {
	Close() error
}

type Dependencies struct {
	Logger *zap.Logger

	// Database
	DB *sqlx.DB

	// Repositories
	SagaRepository  domain.SagaRepository
	OrderRepository domain.OrderRepository

	// Saga engine
	Metrics      *telemetry.SagaMetrics
	OrderService *application.OrderService
	Orchestrator *application.Orchestrator
	Watchdog     *application.TimeoutWatchdog

	// Use Cases
	CreateOrder    *application.CreateOrder
	GetOrder       *application.GetOrder
	ListOrders     *application.ListOrders
	CancelOrder    *application.CancelOrder
	GetSagaStatus  *application.GetSagaStatus
	ListSagas      *application.ListSagas
	GetSagaMetrics *application.GetSagaMetrics

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers
	SagaHandlers  *handlers.SagaHandlers

	// Event Handlers
	EventRouter       *saga.TopicRouter
	SagaEventHandlers *handlers.SagaEventHandlers

	// Infrastructure
	EventPublisher  events.Publisher
	EventSubscriber events.Subscriber
	closers         []closer

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

// NewLogger returns a production logger for the production environment and a
// development logger everywhere else
func NewLogger(config *Config) (*zap.Logger, error) {
	if config.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	logger, err := NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	deps := &Dependencies{Logger: logger}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.OrchestratorServiceConfig.
			WithServiceName(config.ServiceName).
			WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			// Continue without telemetry rather than failing
			logger.Warn("failed to initialize telemetry", zap.Error(err))
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	if err := deps.buildStorage(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	if err := deps.buildTransport(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	if err := deps.buildSaga(config); err != nil {
		deps.Close()
		return nil, err
	}

	// Initialize use cases
	deps.CreateOrder = application.NewCreateOrder(deps.OrderService, deps.Orchestrator)
	deps.GetOrder = application.NewGetOrder(deps.OrderService)
	deps.ListOrders = application.NewListOrders(deps.OrderService)
	deps.CancelOrder = application.NewCancelOrder(deps.OrderService, deps.SagaRepository)
	deps.GetSagaStatus = application.NewGetSagaStatus(deps.SagaRepository)
	deps.ListSagas = application.NewListSagas(deps.SagaRepository)
	deps.GetSagaMetrics = application.NewGetSagaMetrics(deps.Metrics)

	// Initialize handlers
	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.GetOrder, deps.ListOrders, deps.CancelOrder)
	deps.SagaHandlers = handlers.NewSagaHandlers(deps.GetSagaStatus, deps.ListSagas, deps.GetSagaMetrics)

	deps.EventRouter = saga.NewTopicRouter(logger)
	deps.SagaEventHandlers = handlers.NewSagaEventHandlers(deps.Orchestrator, logger)
	deps.SagaEventHandlers.RegisterRoutes(deps.EventRouter)

	return deps, nil
}

// buildStorage opens the saga ledger and the order store for the configured
// ledger driver. Orders live in PostgreSQL unless the ledger runs in memory.
func (d *Dependencies) buildStorage(ctx context.Context, config *Config) error {
	if config.Ledger.Driver == LedgerMemory {
		d.SagaRepository = infrastructure.NewMemorySagaRepository()
		d.OrderRepository = infrastructure.NewMemoryOrderRepository()
		return nil
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	d.DB = db
	d.OrderRepository = infrastructure.NewPostgresOrderRepository(db)

	if config.Ledger.Driver == LedgerDynamoDB {
		awsCfg, err := loadAWSConfig(ctx, config)
		if err != nil {
			return err
		}

		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if config.AWS.EndpointDynamoDB != "" {
				o.BaseEndpoint = aws.String(config.AWS.EndpointDynamoDB)
			}
		})
		d.SagaRepository = infrastructure.NewDynamoSagaRepository(client, config.Ledger.DynamoDBTable, d.Logger)
		return nil
	}

	d.SagaRepository = infrastructure.NewPostgresSagaRepository(db)
	return nil
}

// buildTransport wires the message channel. The aws driver publishes to SNS
// behind a circuit breaker and consumes the orchestrator queue on SQS.
func (d *Dependencies) buildTransport(ctx context.Context, config *Config) error {
	if config.Transport.Driver == TransportMemory {
		bus := sharedinfra.NewMemoryBus(d.Logger)
		d.EventPublisher = bus
		d.EventSubscriber = bus
		d.closers = append(d.closers, bus)
		return nil
	}

	awsCfg, err := loadAWSConfig(ctx, config)
	if err != nil {
		return err
	}

	publisher := sharedinfra.NewSNSPublisherAdapter(awsCfg, config.AWS.EndpointSNS, config.AWS.SNSTopicArn, d.Logger)
	d.closers = append(d.closers, publisher)

	d.EventPublisher = sharedinfra.NewBreakerPublisher(publisher, sharedinfra.BreakerConfig{
		Name:             config.ServiceName + "-publisher",
		MaxRequests:      config.Breaker.MaxRequests,
		Interval:         config.Breaker.Interval,
		Timeout:          config.Breaker.Timeout,
		FailureThreshold: config.Breaker.FailureThreshold,
		MinRequests:      config.Breaker.MinRequests,
	}, d.Logger)

	subscriber := sharedinfra.NewSQSSubscriberAdapter(awsCfg, config.AWS.EndpointSQS, config.AWS.SQSQueueURL, d.Logger)
	d.EventSubscriber = subscriber
	d.closers = append(d.closers, subscriber)

	return nil
}

func (d *Dependencies) buildSaga(config *Config) error {
	// A nil meter falls back to the global provider
	var meter metric.Meter
	if d.Telemetry != nil {
		meter = d.Telemetry.GetMeter()
	}

	metrics, err := telemetry.NewSagaMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create saga metrics: %w", err)
	}
	d.Metrics = metrics

	anchor, err := domain.ParseAnchorPolicy(config.Saga.CompensationAnchor)
	if err != nil {
		return fmt.Errorf("invalid compensation anchor: %w", err)
	}

	d.OrderService = application.NewOrderService(d.OrderRepository, d.EventPublisher, d.Logger)

	var opts []application.OrchestratorOption
	if config.Ledger.Driver == LedgerPostgres {
		opts = append(opts, application.WithJournal(sharedinfra.NewPostgresEventStore(d.DB)))
	}

	d.Orchestrator = application.NewOrchestrator(
		d.SagaRepository,
		d.OrderService,
		d.EventPublisher,
		d.Metrics,
		d.Logger,
		application.OrchestratorConfig{
			PaymentMethod:      config.Saga.DefaultPaymentMethod,
			ShippingAddress:    config.Saga.DefaultShippingAddress,
			ShippingMethod:     config.Saga.DefaultShippingMethod,
			AnchorPolicy:       anchor,
			MaxDispatchRetries: config.Saga.MaxDispatchRetries,
			CompensationReason: config.Saga.CompensationReason,
		},
		opts...,
	)

	if config.Watchdog.Enabled {
		d.Watchdog = application.NewTimeoutWatchdog(d.SagaRepository, d.Orchestrator, d.Logger, application.WatchdogConfig{
			Interval:    config.Watchdog.Interval,
			StaleAfter:  config.Watchdog.StaleAfter,
			Concurrency: config.Watchdog.Concurrency,
		})
	}

	return nil
}

func loadAWSConfig(ctx context.Context, config *Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.AWS.Region),
	}
	if config.AWS.AccessKeyID != "" && config.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AWS.AccessKeyID, config.AWS.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close transport: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
