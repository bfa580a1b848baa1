// Package config builds runtime configuration from the environment so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures the full service configuration. Optional backends
// (Postgres, Redis, Kafka) are enabled by presence of their setting and
// fall back to in-process substitutes when absent.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig configures the claim index backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event relay.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("TESTAMENT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("TESTAMENT_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback; override in any real deployment.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}
	jwtIssuer := os.Getenv("TESTAMENT_JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "testament"
	}

	topic := os.Getenv("TESTAMENT_KAFKA_TOPIC")
	if topic == "" {
		topic = "testament.audit"
	}
	var brokers []string
	if raw := os.Getenv("TESTAMENT_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     jwtIssuer,
		DatabaseURL:   os.Getenv("TESTAMENT_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("TESTAMENT_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}
