package utils

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is built once at process start and passed to whatever needs it
type Config struct {
	Port      string
	AppEnv    string
	LogLevel  string
	LogFormat string

	MongoURI string
	MongoDB  string

	JWTSecret []byte

	RazorpayKeyID     string
	RazorpayKeySecret string

	PostmarkToken string
	EmailSender   string

	CORSOrigins []string

	DefaultLat float64
	DefaultLng float64

	BestsellerLimit int
	AllowRoleSignup bool

	AdminEmail string
	AdminPass  string
	AdminName  string
}

// Production reports whether the app runs in production mode
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// LoadConfig reads .env (if present), the optional config file and the
// environment. Secrets have no defaults.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found. Proceeding with environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "foodapp")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("DEFAULT_LAT", 28.6139)
	v.SetDefault("DEFAULT_LNG", 77.2090)
	v.SetDefault("BESTSELLER_LIMIT", 10)
	v.SetDefault("ALLOW_ROLE_SIGNUP", false)
	v.SetDefault("ADMIN_NAME", "Admin")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		AppEnv:            v.GetString("APP_ENV"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDB:           v.GetString("MONGO_DB"),
		JWTSecret:         []byte(v.GetString("JWT_SECRET")),
		RazorpayKeyID:     v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
		PostmarkToken:     v.GetString("POSTMARK_API_TOKEN"),
		EmailSender:       v.GetString("EMAIL_SENDER"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		DefaultLat:        v.GetFloat64("DEFAULT_LAT"),
		DefaultLng:        v.GetFloat64("DEFAULT_LNG"),
		BestsellerLimit:   v.GetInt("BESTSELLER_LIMIT"),
		AllowRoleSignup:   v.GetBool("ALLOW_ROLE_SIGNUP"),
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPass:         v.GetString("ADMIN_PASS"),
		AdminName:         v.GetString("ADMIN_NAME"),
	}
	if cfg.BestsellerLimit <= 0 {
		cfg.BestsellerLimit = 10
	}
	return cfg, nil
}

// ValidateServe checks the settings the HTTP server cannot run without
func (c *Config) ValidateServe() error {
	var errs []error
	if len(c.JWTSecret) == 0 {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.RazorpayKeyID == "" || c.RazorpayKeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set"))
	}
	return errors.Join(errs...)
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
