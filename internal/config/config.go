package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "PULSE"

	// DriverSQLite stores everything in a local SQLite file through GORM.
	DriverSQLite = "sqlite"
	// DriverMongo stores everything in MongoDB.
	DriverMongo = "mongo"

	defaultHTTPAddress       = "0.0.0.0:8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultDatabaseDriver    = DriverSQLite
	defaultDatabasePath      = "pulse.db"
	defaultMongoDatabase     = "pulse"
	defaultMongoTimeout      = 10 * time.Second
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 5
	defaultLogMaxAgeDays     = 30
	defaultCookieName        = "app_session"
	defaultTAuthIssuer       = "tauth"
	defaultVisitorTokenTTL   = 365 * 24 * time.Hour
	defaultCurrencyBase      = "USD"
	defaultCurrencyAPIURL    = "https://v6.exchangerate-api.com/v6/latest"
	defaultCurrencyTTL       = time.Hour
	defaultCurrencyTimeout   = 10 * time.Second
	defaultCurrencyPerMinute = 30
	defaultSMTPPort          = 587
	defaultLanguage          = "en"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress     string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	DatabaseDriver string
	DatabasePath   string
	MongoURI       string
	MongoDatabase  string
	MongoTimeout   time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	TAuthSigningKey string
	TAuthCookieName string
	TAuthIssuer     string

	VisitorSigningKey string
	VisitorTokenTTL   time.Duration

	CurrencyBase              string
	CurrencyAPIURL            string
	CurrencyAPIKey            string
	CurrencyTTL               time.Duration
	CurrencyTimeout           time.Duration
	CurrencyRequestsPerMinute int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       string

	SentryDSN         string
	SentryEnvironment string
	Release           string

	DefaultLanguage string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", []string{})
	configViper.SetDefault("http.shutdown_timeout", defaultShutdownTimeout)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("mongo.timeout", defaultMongoTimeout)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.max_size_mb", defaultLogMaxSizeMB)
	configViper.SetDefault("log.max_backups", defaultLogMaxBackups)
	configViper.SetDefault("log.max_age_days", defaultLogMaxAgeDays)
	configViper.SetDefault("tauth.cookie_name", defaultCookieName)
	configViper.SetDefault("tauth.issuer", defaultTAuthIssuer)
	configViper.SetDefault("visitor.token_ttl", defaultVisitorTokenTTL)
	configViper.SetDefault("currency.base", defaultCurrencyBase)
	configViper.SetDefault("currency.api_url", defaultCurrencyAPIURL)
	configViper.SetDefault("currency.ttl", defaultCurrencyTTL)
	configViper.SetDefault("currency.timeout", defaultCurrencyTimeout)
	configViper.SetDefault("currency.requests_per_minute", defaultCurrencyPerMinute)
	configViper.SetDefault("smtp.port", defaultSMTPPort)
	configViper.SetDefault("i18n.default_language", defaultLanguage)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		AllowedOrigins:  splitList(configViper.GetStringSlice("http.allowed_origins")),
		ShutdownTimeout: configViper.GetDuration("http.shutdown_timeout"),

		DatabaseDriver: strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabasePath:   configViper.GetString("database.path"),
		MongoURI:       configViper.GetString("mongo.uri"),
		MongoDatabase:  configViper.GetString("mongo.database"),
		MongoTimeout:   configViper.GetDuration("mongo.timeout"),

		LogLevel:      configViper.GetString("log.level"),
		LogFile:       configViper.GetString("log.file"),
		LogMaxSizeMB:  configViper.GetInt("log.max_size_mb"),
		LogMaxBackups: configViper.GetInt("log.max_backups"),
		LogMaxAgeDays: configViper.GetInt("log.max_age_days"),

		TAuthSigningKey: configViper.GetString("tauth.signing_secret"),
		TAuthCookieName: configViper.GetString("tauth.cookie_name"),
		TAuthIssuer:     configViper.GetString("tauth.issuer"),

		VisitorSigningKey: configViper.GetString("visitor.signing_secret"),
		VisitorTokenTTL:   configViper.GetDuration("visitor.token_ttl"),

		CurrencyBase:              strings.ToUpper(strings.TrimSpace(configViper.GetString("currency.base"))),
		CurrencyAPIURL:            configViper.GetString("currency.api_url"),
		CurrencyAPIKey:            configViper.GetString("currency.api_key"),
		CurrencyTTL:               configViper.GetDuration("currency.ttl"),
		CurrencyTimeout:           configViper.GetDuration("currency.timeout"),
		CurrencyRequestsPerMinute: configViper.GetInt("currency.requests_per_minute"),

		SMTPHost:     configViper.GetString("smtp.host"),
		SMTPPort:     configViper.GetInt("smtp.port"),
		SMTPUsername: configViper.GetString("smtp.username"),
		SMTPPassword: configViper.GetString("smtp.password"),
		SMTPFrom:     configViper.GetString("smtp.from"),
		SMTPTo:       configViper.GetString("smtp.to"),

		SentryDSN:         configViper.GetString("sentry.dsn"),
		SentryEnvironment: configViper.GetString("sentry.environment"),
		Release:           configViper.GetString("app.release"),

		DefaultLanguage: configViper.GetString("i18n.default_language"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.TAuthSigningKey) == "" {
		return fmt.Errorf("tauth.signing_secret is required")
	}
	if strings.TrimSpace(c.TAuthCookieName) == "" {
		return fmt.Errorf("tauth.cookie_name is required")
	}
	if strings.TrimSpace(c.VisitorSigningKey) == "" {
		return fmt.Errorf("visitor.signing_secret is required")
	}
	if c.VisitorSigningKey == c.TAuthSigningKey {
		return fmt.Errorf("visitor.signing_secret must differ from tauth.signing_secret")
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("mongo.uri is required when database.driver is mongo")
		}
		if strings.TrimSpace(c.MongoDatabase) == "" {
			return fmt.Errorf("mongo.database is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverMongo, c.DatabaseDriver)
	}
	if strings.TrimSpace(c.CurrencyAPIURL) == "" {
		return fmt.Errorf("currency.api_url is required")
	}
	if len(c.CurrencyBase) != 3 {
		return fmt.Errorf("currency.base must be a three letter code")
	}
	return nil
}

// SMTPEnabled reports whether the contact form can send mail.
func (c AppConfig) SMTPEnabled() bool {
	return strings.TrimSpace(c.SMTPHost) != "" && strings.TrimSpace(c.SMTPFrom) != "" && strings.TrimSpace(c.SMTPTo) != ""
}

// splitList accepts both repeated values and a single comma separated env value.
func splitList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
