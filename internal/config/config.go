package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	StoreDriver string // "scylla" ou "memory"
	FrontendURL string
	CORSOrigins []string
	AdminEmails []string

	Scylla ScyllaConfig
	Redis  RedisConfig

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CacheTTL        time.Duration

	LowStockThreshold int

	SMTP   SMTPConfig
	Notify NotifyConfig

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	ElasticIndex    string

	MinIO MinIOConfig

	InvoicePDFEnabled bool

	SessionSecret        string
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthCallbackBaseURL string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginMaxAttempts  int
	LoginWindow       time.Duration
}

type ScyllaConfig struct {
	Hosts            []string
	SSLEnabled       bool
	CACertPath       string
	AutoMigrate      bool
	Consistency      string
	ProductsKeyspace string
	ProductsRole     string
	ProductsPassword string
	UsersKeyspace    string
	UsersRole        string
	UsersPassword    string
	OrdersKeyspace   string
	OrdersRole       string
	OrdersPassword   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type NotifyConfig struct {
	QueueKey   string
	MaxRetries int
	Workers    int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Load lit le fichier .env s'il existe puis construit la configuration.
func Load() *Config {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv construit la configuration depuis l'environnement courant.
func FromEnv() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "scylla")),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		Scylla: ScyllaConfig{
			Hosts:            splitList(getEnv("SCYLLA_HOSTS", "127.0.0.1")),
			SSLEnabled:       getEnvBool("SCYLLA_SSL_ENABLED", false),
			CACertPath:       os.Getenv("SCYLLA_SSL_CA_PATH"),
			AutoMigrate:      getEnvBool("SCYLLA_AUTO_MIGRATE", false),
			Consistency:      getEnv("SCYLLA_CONSISTENCY", "QUORUM"),
			ProductsKeyspace: getEnv("SCYLLA_KS_PRODUCTS_KEYSPACE", "ks_products"),
			ProductsRole:     os.Getenv("SCYLLA_KS_PRODUCTS_ROLE"),
			ProductsPassword: os.Getenv("SCYLLA_KS_PRODUCTS_PASSWORD"),
			UsersKeyspace:    getEnv("SCYLLA_KS_USERS_KEYSPACE", "ks_users"),
			UsersRole:        os.Getenv("SCYLLA_KS_USERS_ROLE"),
			UsersPassword:    os.Getenv("SCYLLA_KS_USERS_PASSWORD"),
			OrdersKeyspace:   getEnv("SCYLLA_KS_ORDERS_KEYSPACE", "ks_orders"),
			OrdersRole:       os.Getenv("SCYLLA_KS_ORDERS_ROLE"),
			OrdersPassword:   os.Getenv("SCYLLA_KS_ORDERS_PASSWORD"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_HOST"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),

		LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 5),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		},
		Notify: NotifyConfig{
			QueueKey:   getEnv("NOTIFY_QUEUE_KEY", "queue:notifications"),
			MaxRetries: getEnvInt("NOTIFY_MAX_RETRIES", 3),
			Workers:    getEnvInt("NOTIFY_WORKERS", 2),
		},

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),
		ElasticIndex:    getEnv("ELASTIC_PRODUCTS_INDEX", "products"),

		MinIO: MinIOConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "products"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			URLExpiry: getEnvDuration("MINIO_URL_EXPIRY", 24*time.Hour),
		},

		InvoicePDFEnabled: getEnvBool("INVOICE_PDF_ENABLED", false),

		SessionSecret:        os.Getenv("SESSION_SECRET"),
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		FacebookClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
		FacebookClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
		OAuthCallbackBaseURL: getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080/api/auth"),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		LoginMaxAttempts:  getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:       getEnvDuration("LOGIN_WINDOW", 15*time.Minute),
	}

	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET non défini, les tokens ne seront pas sûrs")
	}
	return cfg
}

func (c *Config) UseMemoryStore() bool { return c.StoreDriver == "memory" }

func (c *Config) SMTPEnabled() bool { return c.SMTP.Host != "" }

func (c *Config) MinIOEnabled() bool { return c.MinIO.Endpoint != "" }

func (c *Config) ElasticEnabled() bool { return c.ElasticURL != "" }

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if result, err := strconv.Atoi(val); err == nil {
			return result
		}
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %d", key, val, defaultVal)
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if result, err := time.ParseDuration(val); err == nil {
			return result
		}
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %s", key, val, defaultVal)
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
