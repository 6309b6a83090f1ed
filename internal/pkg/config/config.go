package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// OrderService configures cmd/order-service.
type OrderService struct {
	HTTPAddr     string        `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr     string        `envconfig:"GRPC_ADDR" default:":9090"`
	DBPath       string        `envconfig:"DB_PATH" default:"orders.db"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	OTLPEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
	Environment  string        `envconfig:"OTEL_RESOURCE_ATTRIBUTES_ENV" default:"local"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	IdemTTL      time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	// Tokens is the development token table: token:user[:admin], comma separated.
	Tokens          string        `envconfig:"AUTH_TOKENS" default:""`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Storefront configures cmd/storefront. Flags override these values.
type Storefront struct {
	APIURL       string        `envconfig:"API_URL" default:"http://localhost:8080"`
	Token        string        `envconfig:"TOKEN" default:""`
	Session      string        `envconfig:"SESSION" default:"default"`
	CartDir      string        `envconfig:"CART_DIR" default:".storefront"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:""`
	CartTTL      time.Duration `envconfig:"CART_TTL" default:"720h"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"10s"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"warn"`
	OTLPEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

func LoadOrderService() (*OrderService, error) {
	var cfg OrderService
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// LoadStorefront reads STOREFRONT_* variables.
func LoadStorefront() (*Storefront, error) {
	var cfg Storefront
	if err := envconfig.Process("storefront", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Token is one entry of the development token table.
type Token struct {
	Value  string
	UserID string
	Admin  bool
}

// ParseTokens reads "tok:user[:admin],..." entries.
func ParseTokens(raw string) ([]Token, error) {
	var out []Token
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("config: malformed token entry %q", entry)
		}
		t := Token{Value: parts[0], UserID: parts[1]}
		if len(parts) == 3 {
			if parts[2] != "admin" {
				return nil, fmt.Errorf("config: unknown token role %q", parts[2])
			}
			t.Admin = true
		}
		out = append(out, t)
	}
	return out, nil
}
