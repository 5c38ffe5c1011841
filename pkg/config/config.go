package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	BaseURL        string        `envconfig:"BASE_URL" default:"http://localhost:8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName         string `envconfig:"DB_NAME" default:"storedb"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./migrations"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	CartCacheTTL  time.Duration `envconfig:"CART_CACHE_TTL" default:"15m"`

	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaOrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"store-orders"`

	PaystackSecretKey string        `envconfig:"PAYSTACK_SECRET_KEY" required:"true"`
	PaystackBaseURL   string        `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Currency          string        `envconfig:"CURRENCY" default:"GHS"`
	GatewayTimeout    time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
