package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Mailjet      MailjetConfig
	SendGrid     SendGridConfig
	Notification NotificationConfig
	Xendit       XenditConfig
	Redis        RedisConfig
	Allocation   AllocationConfig
	Login        LoginConfig
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

type SendGridConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
}

type NotificationConfig struct {
	// Provider is "mailjet", "sendgrid" or empty for log-only delivery.
	Provider   string
	AdminEmail string
	AdminName  string
}

type AppConfig struct {
	Name             string
	Version          string
	Environment      string
	AppDeploymentUrl string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type XenditConfig struct {
	XenditSecretKey                string
	XenditUrl                      string
	RedirectUrl                    string
	XenditWebhookVerificationToken string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type AllocationConfig struct {
	TargetMargin    decimal.Decimal
	PackagingCost   decimal.Decimal
	SolverTimeout   time.Duration
	SolverMaxNodes  int
	PaymentDeadline time.Duration
	SweepInterval   time.Duration
}

type LoginConfig struct {
	MaxAttempts int
	Lockout     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	allocation, err := loadAllocation()
	if err != nil {
		return nil, err
	}

	login, err := loadLogin()
	if err != nil {
		return nil, err
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:             getEnv("APP_NAME", "Just Eat More"),
			Version:          getEnv("APP_VERSION", "1.0.0"),
			Environment:      getEnv("APP_ENV", "development"),
			AppDeploymentUrl: getEnv("APP_DEPLOYMENT_URL", "http://localhost:8080"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "just_eat_more"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       jwtTTL,
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", ""),
		},
		SendGrid: SendGridConfig{
			APIKey:      getEnv("SENDGRID_API_KEY", ""),
			SenderEmail: getEnv("SENDGRID_SENDER_EMAIL", ""),
			SenderName:  getEnv("SENDGRID_SENDER_NAME", "Just Eat More"),
		},
		Notification: NotificationConfig{
			Provider:   getEnv("NOTIFICATION_PROVIDER", ""),
			AdminEmail: getEnv("NOTIFICATION_ADMIN_EMAIL", ""),
			AdminName:  getEnv("NOTIFICATION_ADMIN_NAME", "Admin"),
		},
		Xendit: XenditConfig{
			XenditSecretKey:                getEnv("XENDIT_SECRET_KEY", ""),
			XenditUrl:                      getEnv("XENDIT_URL", "https://api.xendit.co/v2/invoices"),
			RedirectUrl:                    getEnv("REDIRECT_URL", ""),
			XenditWebhookVerificationToken: getEnv("XENDIT_WEBHOOK_VERIFICATION_TOKEN", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Allocation: allocation,
		Login:      login,
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func loadAllocation() (AllocationConfig, error) {
	target, err := decimal.NewFromString(getEnv("TARGET_MARGIN", "0.38"))
	if err != nil {
		return AllocationConfig{}, fmt.Errorf("invalid TARGET_MARGIN: %w", err)
	}

	packaging, err := decimal.NewFromString(getEnv("PACKAGING_COST", "0"))
	if err != nil {
		return AllocationConfig{}, fmt.Errorf("invalid PACKAGING_COST: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("SOLVER_TIMEOUT", "5s"))
	if err != nil {
		return AllocationConfig{}, fmt.Errorf("invalid SOLVER_TIMEOUT: %w", err)
	}

	maxNodes, err := strconv.Atoi(getEnv("SOLVER_MAX_NODES", "20000"))
	if err != nil || maxNodes <= 0 {
		return AllocationConfig{}, errors.New("invalid SOLVER_MAX_NODES")
	}

	deadline, err := time.ParseDuration(getEnv("PAYMENT_DEADLINE", "24h"))
	if err != nil {
		return AllocationConfig{}, fmt.Errorf("invalid PAYMENT_DEADLINE: %w", err)
	}

	sweep, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "10m"))
	if err != nil {
		return AllocationConfig{}, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	return AllocationConfig{
		TargetMargin:    target,
		PackagingCost:   packaging,
		SolverTimeout:   timeout,
		SolverMaxNodes:  maxNodes,
		PaymentDeadline: deadline,
		SweepInterval:   sweep,
	}, nil
}

func loadLogin() (LoginConfig, error) {
	attempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	if err != nil || attempts <= 0 {
		return LoginConfig{}, errors.New("invalid LOGIN_MAX_ATTEMPTS")
	}

	lockout, err := time.ParseDuration(getEnv("LOGIN_LOCKOUT", "5m"))
	if err != nil {
		return LoginConfig{}, fmt.Errorf("invalid LOGIN_LOCKOUT: %w", err)
	}

	return LoginConfig{MaxAttempts: attempts, Lockout: lockout}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
