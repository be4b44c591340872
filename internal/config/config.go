package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

type Postgres struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"storefront"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

type Razorpay struct {
	KeyID     string `envconfig:"KEY_ID" required:"true"`
	KeySecret string `envconfig:"KEY_SECRET" required:"true"`
}

// API configures cmd/storefront-api.
type API struct {
	HTTPPort           string        `envconfig:"HTTP_PORT" default:"8080"`
	OpsPort            string        `envconfig:"OPS_PORT" default:"50060"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment     bool          `envconfig:"LOG_DEVELOPMENT" default:"false"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxRequestBodySize int64         `envconfig:"MAX_REQUEST_BODY_SIZE" default:"1048576"`
	GatewayTimeout     time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`

	DB       Postgres `envconfig:"DB"`
	Razorpay Razorpay `envconfig:"RAZORPAY"`

	MongoURI      string   `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName   string   `envconfig:"MONGO_DB_NAME" default:"storefront"`
	RedisAddr     string   `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string   `envconfig:"REDIS_PASSWORD" default:""`
	KafkaBrokers  []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrderTopic    string   `envconfig:"ORDER_TOPIC" default:"order-events"`
}

// Client configures the cmd/storefront terminal client.
type Client struct {
	APIURL               string        `envconfig:"API_URL" default:"http://localhost:8080/api/v1"`
	GuestID              string        `envconfig:"GUEST_ID"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"warn"`
	RequestTimeout       time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	PaymentCreateTimeout time.Duration `envconfig:"PAYMENT_CREATE_TIMEOUT" default:"15s"`
	PaymentVerifyTimeout time.Duration `envconfig:"PAYMENT_VERIFY_TIMEOUT" default:"20s"`
	ReviewJournalPath    string        `envconfig:"REVIEW_JOURNAL_PATH" default:"storefront-review.db"`
}

func LoadAPI() (*API, error) {
	var cfg API
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadClient() (*Client, error) {
	var cfg Client
	if err := load(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// load reads an optional .env file and then the STOREFRONT_* environment.
// Variables already present in the environment win over the file.
func load(cfg interface{}) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	return nil
}
