package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Model      ModelConfig
	Kubernetes KubernetesConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Batch      BatchConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type ModelConfig struct {
	Source          string // file, configmap
	Path            string
	Format          string // xgboost, lightgbm, lightgbm-json, sklearn
	Version         string
	FallbackEnabled bool
}

type KubernetesConfig struct {
	InCluster      bool
	KubeConfigPath string
	Namespace      string
	ModelConfigMap string
	ModelKey       string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type CacheConfig struct {
	Backend         string // none, memory, redis
	TTL             time.Duration
	CleanupInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	MinRiskLevel string
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
}

type CORSConfig struct {
	AllowOrigins []string
}

type BatchConfig struct {
	MaxSize     int
	Concurrency int
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	v.SetDefault("MODEL_SOURCE", "file")
	v.SetDefault("MODEL_PATH", "models/dropout_model.bin")
	v.SetDefault("MODEL_FORMAT", "xgboost")
	v.SetDefault("MODEL_VERSION", "XGBoost_v1.0_compatible")
	v.SetDefault("MODEL_FALLBACK_ENABLED", false)

	v.SetDefault("K8S_IN_CLUSTER", false)
	v.SetDefault("K8S_KUBECONFIG", "")
	v.SetDefault("K8S_NAMESPACE", "default")
	v.SetDefault("K8S_MODEL_CONFIGMAP", "dropout-model")
	v.SetDefault("K8S_MODEL_KEY", "model.bin")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dropout_risk")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_MIGRATE_ON_START", true)

	v.SetDefault("CACHE_BACKEND", "none")
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("CACHE_CLEANUP_INTERVAL", "5m")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "dropout.predictions")
	v.SetDefault("KAFKA_MIN_RISK_LEVEL", "high")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_ISSUER", "")

	v.SetDefault("CORS_ALLOW_ORIGINS", "*")

	v.SetDefault("BATCH_MAX_SIZE", 1000)
	v.SetDefault("BATCH_CONCURRENCY", 8)

	// Env
	v.AutomaticEnv()

	if v.GetBool("AUTH_ENABLED") && v.GetString("AUTH_JWT_SECRET") == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_ENABLED is set")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: duration(v, "SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Model: ModelConfig{
			Source:          strings.ToLower(v.GetString("MODEL_SOURCE")),
			Path:            v.GetString("MODEL_PATH"),
			Format:          strings.ToLower(v.GetString("MODEL_FORMAT")),
			Version:         v.GetString("MODEL_VERSION"),
			FallbackEnabled: v.GetBool("MODEL_FALLBACK_ENABLED"),
		},
		Kubernetes: KubernetesConfig{
			InCluster:      v.GetBool("K8S_IN_CLUSTER"),
			KubeConfigPath: v.GetString("K8S_KUBECONFIG"),
			Namespace:      v.GetString("K8S_NAMESPACE"),
			ModelConfigMap: v.GetString("K8S_MODEL_CONFIGMAP"),
			ModelKey:       v.GetString("K8S_MODEL_KEY"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DB_ENABLED"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration(v, "DB_CONN_MAX_LIFETIME", 30*time.Minute),
			MigrateOnStart:  v.GetBool("DB_MIGRATE_ON_START"),
		},
		Cache: CacheConfig{
			Backend:         strings.ToLower(v.GetString("CACHE_BACKEND")),
			TTL:             duration(v, "CACHE_TTL", 10*time.Minute),
			CleanupInterval: duration(v, "CACHE_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Enabled:      v.GetBool("KAFKA_ENABLED"),
			Brokers:      splitList(v.GetString("KAFKA_BROKERS")),
			Topic:        v.GetString("KAFKA_TOPIC"),
			MinRiskLevel: v.GetString("KAFKA_MIN_RISK_LEVEL"),
		},
		Auth: AuthConfig{
			Enabled:   v.GetBool("AUTH_ENABLED"),
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
			Issuer:    v.GetString("AUTH_ISSUER"),
		},
		CORS: CORSConfig{
			AllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		Batch: BatchConfig{
			MaxSize:     v.GetInt("BATCH_MAX_SIZE"),
			Concurrency: v.GetInt("BATCH_CONCURRENCY"),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
