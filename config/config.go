package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Logger   LoggerConfig        `yaml:"logger"`
	Postgres PostgresConfig      `yaml:"postgres"`
	Redis    RedisConfig         `yaml:"redis"`
	Kafka    KafkaConfig         `yaml:"kafka"`
	Elastic  ElasticsearchConfig `yaml:"elastic"`
	Blob     BlobConfig          `yaml:"blob"`
	Store    StoreConfig         `yaml:"store"`
	Notify   NotifyConfig        `yaml:"notify"`
}

type ServerConfig struct {
	AppEnv          string `yaml:"app_env"`
	HTTPPort        string `yaml:"http_port"`
	GRPCPort        string `yaml:"grpc_port"`
	BaseURL         string `yaml:"base_url"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

type LoggerConfig struct {
	Level             string `yaml:"level"`
	Encoding          string `yaml:"encoding"`
	DisableCaller     bool   `yaml:"disable_caller"`
	DisableStacktrace bool   `yaml:"disable_stacktrace"`
}

type PostgresConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"db_name"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime int    `yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	OrdersTopic string   `yaml:"orders_topic"`
	QuotesTopic string   `yaml:"quotes_topic"`
	GroupID     string   `yaml:"group_id"`
}

type ElasticsearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

type BlobConfig struct {
	Driver          string `yaml:"driver"` // s3 | memory
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

type StoreConfig struct {
	Currency              string  `yaml:"currency"`
	ShippingFee           float64 `yaml:"shipping_fee"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
	DefaultPageSize       int     `yaml:"default_page_size"`
	MaxPageSize           int     `yaml:"max_page_size"`
	CatalogCacheTTL       int     `yaml:"catalog_cache_ttl"` // seconds
	CartTTL               int     `yaml:"cart_ttl"`          // hours
	DefaultLanguage       string  `yaml:"default_language"`
	LowStockThreshold     int     `yaml:"low_stock_threshold"`
	CheckoutSessionTTL    int     `yaml:"checkout_session_ttl"` // minutes
	ContentCacheTTL       int     `yaml:"content_cache_ttl"`    // seconds
	SitemapCacheTTL       int     `yaml:"sitemap_cache_ttl"`    // seconds
}

type NotifyConfig struct {
	SMTPAddr     string `yaml:"smtp_addr"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	From         string `yaml:"from"`
	SalesInbox   string `yaml:"sales_inbox"`
}

func (s StoreConfig) CatalogTTL() time.Duration { return time.Duration(s.CatalogCacheTTL) * time.Second }
func (s StoreConfig) CartExpiry() time.Duration { return time.Duration(s.CartTTL) * time.Hour }
func (s StoreConfig) SessionExpiry() time.Duration {
	return time.Duration(s.CheckoutSessionTTL) * time.Minute
}
func (s StoreConfig) ContentTTL() time.Duration { return time.Duration(s.ContentCacheTTL) * time.Second }
func (s StoreConfig) SitemapTTL() time.Duration { return time.Duration(s.SitemapCacheTTL) * time.Second }

// IsDevelopment reports whether the service runs with development defaults.
func (s ServerConfig) IsDevelopment() bool {
	return s.AppEnv == "dev" || s.AppEnv == "development"
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (a .env file is honored when present). Environment wins.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path == "" {
		path = os.Getenv("STOREFRONT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          "dev",
			HTTPPort:        ":8080",
			GRPCPort:        ":9090",
			BaseURL:         "http://localhost:5173",
			ShutdownTimeout: 15,
		},
		Logger: LoggerConfig{
			Level:             "debug",
			Encoding:          "console",
			DisableStacktrace: true,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "scistore",
			Password:        "scistore",
			DBName:          "scistore",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			OrdersTopic: "orders.events",
			QuotesTopic: "quotes.events",
			GroupID:     "scistore",
		},
		Elastic: ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}},
		Blob:    BlobConfig{Driver: "memory", Region: "us-east-1"},
		Store: StoreConfig{
			Currency:              "BDT",
			ShippingFee:           150,
			FreeShippingThreshold: 10000,
			DefaultPageSize:       12,
			MaxPageSize:           60,
			CatalogCacheTTL:       300,
			CartTTL:               72,
			DefaultLanguage:       "en",
			LowStockThreshold:     5,
			CheckoutSessionTTL:    60,
			ContentCacheTTL:       600,
			SitemapCacheTTL:       3600,
		},
		Notify: NotifyConfig{
			From:       "no-reply@scistore.local",
			SalesInbox: "sales@scistore.local",
		},
	}
}

func (c *Config) applyEnvOverrides() {
	c.Server.AppEnv = getEnv("APP_ENV", c.Server.AppEnv)
	c.Server.HTTPPort = getEnv("HTTP_PORT", c.Server.HTTPPort)
	c.Server.GRPCPort = getEnv("GRPC_PORT", c.Server.GRPCPort)
	c.Server.BaseURL = getEnv("PUBLIC_BASE_URL", c.Server.BaseURL)
	c.Server.ShutdownTimeout = getEnvInt("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Logger.Level = getEnv("LOGGER_LEVEL", c.Logger.Level)
	c.Logger.Encoding = getEnv("LOGGER_ENCODING", c.Logger.Encoding)
	c.Logger.DisableCaller = getEnvBool("LOGGER_DISABLE_CALLER", c.Logger.DisableCaller)
	c.Logger.DisableStacktrace = getEnvBool("LOGGER_DISABLE_STACKTRACE", c.Logger.DisableStacktrace)

	c.Postgres.Host = getEnv("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = getEnv("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = getEnv("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.DBName = getEnv("POSTGRES_DB", c.Postgres.DBName)
	c.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", c.Postgres.SSLMode)
	c.Postgres.MaxOpenConns = getEnvInt("POSTGRES_MAX_OPEN_CONNS", c.Postgres.MaxOpenConns)
	c.Postgres.MaxIdleConns = getEnvInt("POSTGRES_MAX_IDLE_CONNS", c.Postgres.MaxIdleConns)
	c.Postgres.ConnMaxLifetime = getEnvInt("POSTGRES_CONN_MAX_LIFETIME", c.Postgres.ConnMaxLifetime)
	c.Postgres.ConnMaxIdleTime = getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", c.Postgres.ConnMaxIdleTime)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Kafka.Brokers = getEnvSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.OrdersTopic = getEnv("KAFKA_TOPIC_ORDERS", c.Kafka.OrdersTopic)
	c.Kafka.QuotesTopic = getEnv("KAFKA_TOPIC_QUOTES", c.Kafka.QuotesTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Elastic.Addresses = getEnvSlice("ELASTICSEARCH_ADDRESSES", c.Elastic.Addresses)
	c.Elastic.Username = getEnv("ELASTICSEARCH_USERNAME", c.Elastic.Username)
	c.Elastic.Password = getEnv("ELASTICSEARCH_PASSWORD", c.Elastic.Password)

	c.Blob.Driver = getEnv("BLOB_DRIVER", c.Blob.Driver)
	c.Blob.Bucket = getEnv("BLOB_S3_BUCKET", c.Blob.Bucket)
	c.Blob.Region = getEnv("BLOB_S3_REGION", c.Blob.Region)
	c.Blob.Endpoint = getEnv("BLOB_S3_ENDPOINT", c.Blob.Endpoint)
	c.Blob.AccessKeyID = getEnv("BLOB_S3_ACCESS_KEY_ID", c.Blob.AccessKeyID)
	c.Blob.SecretAccessKey = getEnv("BLOB_S3_SECRET_ACCESS_KEY", c.Blob.SecretAccessKey)
	c.Blob.PathStyle = getEnvBool("BLOB_S3_PATH_STYLE", c.Blob.PathStyle)
	c.Blob.PublicBaseURL = getEnv("BLOB_PUBLIC_BASE_URL", c.Blob.PublicBaseURL)

	c.Store.Currency = getEnv("STORE_CURRENCY", c.Store.Currency)
	c.Store.ShippingFee = getEnvFloat("STORE_SHIPPING_FEE", c.Store.ShippingFee)
	c.Store.FreeShippingThreshold = getEnvFloat("STORE_FREE_SHIPPING_THRESHOLD", c.Store.FreeShippingThreshold)
	c.Store.DefaultPageSize = getEnvInt("STORE_DEFAULT_PAGE_SIZE", c.Store.DefaultPageSize)
	c.Store.MaxPageSize = getEnvInt("STORE_MAX_PAGE_SIZE", c.Store.MaxPageSize)
	c.Store.CatalogCacheTTL = getEnvInt("STORE_CATALOG_CACHE_TTL", c.Store.CatalogCacheTTL)
	c.Store.CartTTL = getEnvInt("STORE_CART_TTL", c.Store.CartTTL)
	c.Store.DefaultLanguage = getEnv("STORE_DEFAULT_LANGUAGE", c.Store.DefaultLanguage)
	c.Store.LowStockThreshold = getEnvInt("STORE_LOW_STOCK_THRESHOLD", c.Store.LowStockThreshold)
	c.Store.CheckoutSessionTTL = getEnvInt("STORE_CHECKOUT_SESSION_TTL", c.Store.CheckoutSessionTTL)
	c.Store.ContentCacheTTL = getEnvInt("STORE_CONTENT_CACHE_TTL", c.Store.ContentCacheTTL)
	c.Store.SitemapCacheTTL = getEnvInt("STORE_SITEMAP_CACHE_TTL", c.Store.SitemapCacheTTL)

	c.Notify.SMTPAddr = getEnv("SMTP_ADDR", c.Notify.SMTPAddr)
	c.Notify.SMTPUsername = getEnv("SMTP_USERNAME", c.Notify.SMTPUsername)
	c.Notify.SMTPPassword = getEnv("SMTP_PASSWORD", c.Notify.SMTPPassword)
	c.Notify.From = getEnv("NOTIFY_FROM", c.Notify.From)
	c.Notify.SalesInbox = getEnv("NOTIFY_SALES_INBOX", c.Notify.SalesInbox)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
