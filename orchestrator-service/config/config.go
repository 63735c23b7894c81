package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Ledger drivers
const (
	LedgerPostgres = "postgres"
	LedgerDynamoDB = "dynamodb"
	LedgerMemory   = "memory"
)

// Transport drivers
const (
	TransportAWS    = "aws"
	TransportMemory = "memory"
)

type Config struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	Database    Database  `mapstructure:"database"`
	AWS         AWS       `mapstructure:"aws"`
	Ledger      Ledger    `mapstructure:"ledger"`
	Transport   Transport `mapstructure:"transport"`
	Saga        Saga      `mapstructure:"saga"`
	Watchdog    Watchdog  `mapstructure:"watchdog"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
	Breaker     Breaker   `mapstructure:"breaker"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AWS struct {
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	Region           string `mapstructure:"region"`
	EndpointSNS      string `mapstructure:"endpoint_sns"`
	EndpointSQS      string `mapstructure:"endpoint_sqs"`
	EndpointDynamoDB string `mapstructure:"endpoint_dynamodb"`
	SNSTopicArn      string `mapstructure:"sns_topic_arn"`
	SQSQueueURL      string `mapstructure:"sqs_queue_url"`
}

type Ledger struct {
	Driver        string `mapstructure:"driver"`
	DynamoDBTable string `mapstructure:"dynamodb_table"`
}

type Transport struct {
	Driver string `mapstructure:"driver"`
}

type Saga struct {
	DefaultPaymentMethod   string `mapstructure:"default_payment_method"`
	DefaultShippingAddress string `mapstructure:"default_shipping_address"`
	DefaultShippingMethod  string `mapstructure:"default_shipping_method"`
	CompensationAnchor     string `mapstructure:"compensation_anchor"`
	MaxDispatchRetries     int    `mapstructure:"max_dispatch_retries"`
	CompensationReason     string `mapstructure:"compensation_reason"`
}

type Watchdog struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	StaleAfter  time.Duration `mapstructure:"stale_after"`
	Concurrency int           `mapstructure:"concurrency"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type Breaker struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	configDir := filepath.Join(filepath.Dir(filename))
	viper.SetConfigName(getConfigName())
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	// ORCHESTRATOR_SAGA_MAX_DISPATCH_RETRIES overrides saga.max_dispatch_retries
	viper.SetEnvPrefix("ORCHESTRATOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults() {
	// Service defaults
	viper.SetDefault("service_name", "orchestrator-service")
	viper.SetDefault("env", getEnv("ENV", "local"))
	viper.SetDefault("port", getEnv("PORT", "8080"))

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "order_saga")
	viper.SetDefault("database.ssl_mode", "disable")

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		viper.Set("database.url", dbURL)
	}

	// AWS defaults
	viper.SetDefault("aws.access_key_id", getEnv("AWS_ACCESS_KEY_ID", "test"))
	viper.SetDefault("aws.secret_access_key", getEnv("AWS_SECRET_ACCESS_KEY", "test"))
	viper.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	viper.SetDefault("aws.endpoint_sns", getEnv("AWS_ENDPOINT_URL_SNS", ""))
	viper.SetDefault("aws.endpoint_sqs", getEnv("AWS_ENDPOINT_URL_SQS", ""))
	viper.SetDefault("aws.endpoint_dynamodb", getEnv("AWS_ENDPOINT_URL_DYNAMODB", ""))
	viper.SetDefault("aws.sns_topic_arn", getEnv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:order-saga-events"))
	viper.SetDefault("aws.sqs_queue_url", getEnv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/orchestrator-events"))

	viper.SetDefault("ledger.driver", LedgerPostgres)
	viper.SetDefault("ledger.dynamodb_table", "saga_transactions")
	viper.SetDefault("transport.driver", TransportAWS)

	// Saga defaults
	viper.SetDefault("saga.default_payment_method", "CREDIT_CARD")
	viper.SetDefault("saga.default_shipping_address", "default")
	viper.SetDefault("saga.default_shipping_method", "STANDARD")
	viper.SetDefault("saga.compensation_anchor", "last_completed")
	viper.SetDefault("saga.max_dispatch_retries", 0)
	viper.SetDefault("saga.compensation_reason", "Saga compensation required")

	viper.SetDefault("watchdog.enabled", true)
	viper.SetDefault("watchdog.interval", "60s")
	viper.SetDefault("watchdog.stale_after", "5m")
	viper.SetDefault("watchdog.concurrency", 4)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "localhost:4318")

	viper.SetDefault("breaker.max_requests", 5)
	viper.SetDefault("breaker.interval", "30s")
	viper.SetDefault("breaker.timeout", "60s")
	viper.SetDefault("breaker.min_requests", 5)
	viper.SetDefault("breaker.failure_threshold", 0.8)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) validate() error {
	switch c.Ledger.Driver {
	case LedgerPostgres, LedgerDynamoDB, LedgerMemory:
	default:
		return errors.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	switch c.Transport.Driver {
	case TransportAWS, TransportMemory:
	default:
		return errors.Errorf("unknown transport driver %q", c.Transport.Driver)
	}

	if c.Saga.MaxDispatchRetries < 0 {
		return errors.New("saga.max_dispatch_retries must not be negative")
	}

	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// GetDatabaseURL constructs database URL from config
func (c *Config) GetDatabaseURL() string {
	if url := viper.GetString("database.url"); url != "" {
		return url
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
