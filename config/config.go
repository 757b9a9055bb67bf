// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	mockOTP        = pflag.Bool("mock-otp", false, "Returns OTP codes in API responses instead of delivering them")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

// devJWTSecret is only ever used when app.dev_mode is set. It keeps local
// development working without a config.toml full of secrets.
const devJWTSecret = "dev-jwt-secret-key-for-testing-only"

type Config struct {
	LogLevel string
	DevMode  bool

	Port        int
	Domain      string
	CORSOrigins []string

	JWTSecret string

	OTP       OTPConfig
	Mail      MailConfig
	SMS       SMSConfig
	Directory DirectoryConfig
	DB        DBConfig
}

type OTPConfig struct {
	// MockMode skips out-of-band delivery and returns the code in the
	// request-otp response. Never enable this outside of tests or demos.
	MockMode      bool
	Expiry        time.Duration
	DefaultRegion string
}

type MailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type SMSConfig struct {
	GatewayURL string
	Token      string
}

type DirectoryConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

type DBConfig struct {
	Driver string
	DSN    string
}

// Setup prepares everything config-related so that the app can
// start working. It returns the fully validated configuration that
// gets passed into the router and services once at startup, or an
// error if something is critically wrong and the application can't
// run because of that.
func Setup() (*Config, error) {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.dev_mode", "app_dev_mode")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors_origins", "host_cors_origins")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("otp.mock_mode", "otp_mock_mode")
	v.BindEnv("otp.expiry_minutes", "otp_expiry_minutes")
	v.BindEnv("otp.default_region", "otp_default_region")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("sms.gateway_url", "sms_gateway_url")
	v.BindEnv("sms.token", "sms_token")

	v.BindEnv("directory.base_url", "directory_base_url")
	v.BindEnv("directory.username", "directory_username")
	v.BindEnv("directory.password", "directory_password")
	v.BindEnv("directory.timeout_seconds", "directory_timeout_seconds")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.dev_mode", false)

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("otp.mock_mode", false)
	v.SetDefault("otp.expiry_minutes", 10)
	v.SetDefault("otp.default_region", "US")

	v.SetDefault("directory.timeout_seconds", 30)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if *mockOTP {
		v.Set("otp.mock_mode", true)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return nil, errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return nil, errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return nil, errors.New("invalid database driver provided")
	}

	if v.GetInt("otp.expiry_minutes") <= 0 {
		return nil, errors.New("otp.expiry_minutes must be bigger than 0")
	}

	secret := v.GetString("jwt.secret")
	if secret == "" {
		if !v.GetBool("app.dev_mode") {
			return nil, errors.New("no JWT secret provided. Set it as an environment variable or in the config.toml file")
		}

		zap.L().Warn("No JWT secret provided, using the development fallback. Tokens signed with it are worthless")
		secret = devJWTSecret
	}

	if v.GetString("directory.base_url") == "" {
		return nil, errors.New("no directory base URL provided")
	}

	if !v.GetBool("otp.mock_mode") {
		if v.GetString("mail.host") == "" || v.GetString("mail.sender") == "" {
			return nil, errors.New("mail settings are required when OTP mock mode is disabled")
		}

		if v.GetString("sms.gateway_url") == "" {
			return nil, errors.New("sms.gateway_url is required when OTP mock mode is disabled")
		}
	} else {
		fmt.Println("[WARNING]: OTP mock mode is enabled. Verification codes will be returned in API responses")
	}

	return &Config{
		LogLevel:    v.GetString("app.log_level"),
		DevMode:     v.GetBool("app.dev_mode"),
		Port:        v.GetInt("host.port"),
		Domain:      v.GetString("host.domain"),
		CORSOrigins: v.GetStringSlice("host.cors_origins"),
		JWTSecret:   secret,
		OTP: OTPConfig{
			MockMode:      v.GetBool("otp.mock_mode"),
			Expiry:        time.Duration(v.GetInt("otp.expiry_minutes")) * time.Minute,
			DefaultRegion: v.GetString("otp.default_region"),
		},
		Mail: MailConfig{
			Host:     v.GetString("mail.host"),
			Port:     v.GetInt("mail.port"),
			Sender:   v.GetString("mail.sender"),
			Password: v.GetString("mail.password"),
		},
		SMS: SMSConfig{
			GatewayURL: v.GetString("sms.gateway_url"),
			Token:      v.GetString("sms.token"),
		},
		Directory: DirectoryConfig{
			BaseURL:  v.GetString("directory.base_url"),
			Username: v.GetString("directory.username"),
			Password: v.GetString("directory.password"),
			Timeout:  time.Duration(v.GetInt("directory.timeout_seconds")) * time.Second,
		},
		DB: DBConfig{
			Driver: v.GetString("db.driver"),
			DSN:    v.GetString("db.dsn"),
		},
	}, nil
}
