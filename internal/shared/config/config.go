package config

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port        string
	MetricsPort string // worker's /metrics listener
	Env       string
	LogLevel  string
	LogFormat string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	JWTSecret string
	RedisURL  string

	// Provisioning
	SetupKey       string
	BootstrapAdmin bool
	AdminEmail     string
	AdminPassword  string
	AdminFullName  string
	AdminPhone     string

	// Orders
	DecrementStock    bool
	LowStockThreshold int

	// Background work
	AuditRetentionDays int
	ReportCron         string
	WorkerConcurrency  int

	// Report storage
	UploadDir         string
	UploadBaseURL     string
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("METRICS_PORT", "9091")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)

	v.SetDefault("BOOTSTRAP_ADMIN", false)
	v.SetDefault("ADMIN_EMAIL", "admin@stockmanager.com")
	v.SetDefault("ADMIN_PASSWORD", "Admin@123456")
	v.SetDefault("ADMIN_FULL_NAME", "System Administrator")
	v.SetDefault("ADMIN_PHONE", "+1234567890")

	v.SetDefault("ORDER_DECREMENT_STOCK", false)
	v.SetDefault("LOW_STOCK_THRESHOLD", 5)

	v.SetDefault("AUDIT_RETENTION_DAYS", 90)
	v.SetDefault("REPORT_CRON", "0 0 1 * * *") // daily at 01:00
	v.SetDefault("WORKER_CONCURRENCY", 2)

	v.SetDefault("UPLOAD_DIR", "./storage")
	v.SetDefault("UPLOAD_BASE_URL", "/files")
	v.SetDefault("S3_REGION", "us-east-1")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:        v.GetString("PORT"),
		MetricsPort: v.GetString("METRICS_PORT"),
		Env:       v.GetString("ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		RedisURL:  v.GetString("REDIS_URL"),

		SetupKey:       v.GetString("SETUP_KEY"),
		BootstrapAdmin: v.GetBool("BOOTSTRAP_ADMIN"),
		AdminEmail:     v.GetString("ADMIN_EMAIL"),
		AdminPassword:  v.GetString("ADMIN_PASSWORD"),
		AdminFullName:  v.GetString("ADMIN_FULL_NAME"),
		AdminPhone:     v.GetString("ADMIN_PHONE"),

		DecrementStock:    v.GetBool("ORDER_DECREMENT_STOCK"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),

		AuditRetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		ReportCron:         v.GetString("REPORT_CRON"),
		WorkerConcurrency:  v.GetInt("WORKER_CONCURRENCY"),

		UploadDir:         v.GetString("UPLOAD_DIR"),
		UploadBaseURL:     v.GetString("UPLOAD_BASE_URL"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3Region:          v.GetString("S3_REGION"),
		S3AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		S3Endpoint:        v.GetString("S3_ENDPOINT"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		return errors.New("DB_DRIVER must be 'postgres' or 'sqlite'")
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for the postgres driver")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD cannot be negative")
	}
	return nil
}
