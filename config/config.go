package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           string `env:"PORT" envDefault:"3000"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN      string `env:"DB_DSN"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"advisory"`

	JWTKey    string `env:"JWT_SECRET_KEY" envDefault:"defaultSecret"`
	SaltRound int    `env:"SALT_ROUND" envDefault:"10"`

	EmailSender     string `env:"EMAIL_SENDER"`
	EmailSenderName string `env:"EMAIL_SENDER_NAME" envDefault:"Classia Capital"`
	Password        string `env:"PASSWORD"` // SMTP Password
	SMTPHost        string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort        string `env:"SMTP_PORT" envDefault:"587"`
	SendGridAPIKey  string `env:"SENDGRID_API_KEY"`

	SMSApiURL     string `env:"SMS_API_URL" envDefault:"https://www.fast2sms.com/dev/bulkV2"`
	SMSApiKey     string `env:"SMS_API_KEY"`
	SMSSenderID   string `env:"SMS_SENDER_ID" envDefault:"CLASIA"`
	SMSTemplateID string `env:"SMS_TEMPLATE_ID"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	RazorpayApiURL    string `env:"RAZORPAY_API_URL" envDefault:"https://api.razorpay.com/v1"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisTLS      bool   `env:"REDIS_TLS" envDefault:"false"`

	AMQPURL string `env:"AMQP_URL"`

	OTPTTL                time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPCooldown           time.Duration `env:"OTP_COOLDOWN" envDefault:"30s"`
	NotifyTimeout         time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"12s"`
	VerifyEmailMarksPhone bool          `env:"VERIFY_EMAIL_MARKS_PHONE" envDefault:"false"`

	SchedulerSpec string `env:"SCHEDULER_SPEC" envDefault:"0 9 * * *"`
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}
	AppConfig = cfg

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.AllowedOrigins == "" {
		log.Println("Warning: ALLOWED_ORIGINS not set. CORS allows every origin.")
	}
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Origins returns the CORS origin list in the form fiber's cors middleware expects.
func (c *Config) Origins() string {
	if strings.TrimSpace(c.AllowedOrigins) == "" {
		return "*"
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
