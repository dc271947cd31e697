package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Auth  AuthConfig
	S3    S3Config
	SSO   SSOConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int

	// Login brute-force limiter. Zero values fall back to defaults in Validate().
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// AuthConfig carries token-signing material. Access and refresh secrets are
// independent on purpose: a leaked access secret must not allow minting
// refresh tokens.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string

	// Endpoint is set for MinIO/LocalStack; empty means real AWS.
	Endpoint string
}

type SSOConfig struct {
	// IssuerURL enables OIDC ID-token verification when set.
	IssuerURL string
	ClientID  string

	// AllowMock permits the "mock" provider that trusts the request payload.
	// Never allowed in production; Validate() enforces this.
	AllowMock bool
}

// MinSecretLen is the minimum byte length for JWT signing secrets.
const MinSecretLen = 32

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.LoginMaxAttempts = optionalInt("LOGIN_MAX_ATTEMPTS")
	c.Redis.LoginWindow = optionalDuration("LOGIN_ATTEMPT_WINDOW")

	c.Auth.AccessSecret = os.Getenv("JWT_ACCESS_SECRET")
	c.Auth.RefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	c.Auth.Issuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = optionalDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = optionalDuration("JWT_REFRESH_TTL")

	c.S3.Region = strings.TrimSpace(os.Getenv("AWS_REGION"))
	c.S3.AccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	c.S3.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	c.S3.Bucket = strings.TrimSpace(os.Getenv("AWS_S3_BUCKET"))
	c.S3.Endpoint = strings.TrimSpace(os.Getenv("AWS_S3_ENDPOINT"))

	c.SSO.IssuerURL = strings.TrimSpace(os.Getenv("SSO_ISSUER_URL"))
	c.SSO.ClientID = strings.TrimSpace(os.Getenv("SSO_CLIENT_ID"))
	c.SSO.AllowMock = boolEnv("SSO_ALLOW_MOCK")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Redis.LoginMaxAttempts <= 0 {
		c.Redis.LoginMaxAttempts = 10
	}
	if c.Redis.LoginWindow <= 0 {
		c.Redis.LoginWindow = 15 * time.Minute
	}

	if len(c.Auth.AccessSecret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_SECRET must be at least %d bytes", MinSecretLen))
	}
	if len(c.Auth.RefreshSecret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", MinSecretLen))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.IsProduction() && c.Auth.Issuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required in production"))
	}

	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		// Default: longer-lived refresh tokens.
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.S3.AccessKeyID == "" {
		errs = append(errs, errors.New("AWS_ACCESS_KEY_ID is required"))
	}
	if c.S3.SecretAccessKey == "" {
		errs = append(errs, errors.New("AWS_SECRET_ACCESS_KEY is required"))
	}
	if c.S3.Bucket == "" {
		errs = append(errs, errors.New("AWS_S3_BUCKET is required"))
	}

	if c.SSO.IssuerURL != "" && c.SSO.ClientID == "" {
		errs = append(errs, errors.New("SSO_CLIENT_ID is required when SSO_ISSUER_URL is set"))
	}
	if c.IsProduction() && c.SSO.AllowMock {
		errs = append(errs, errors.New("SSO_ALLOW_MOCK is not permitted in production"))
	}
	if !c.IsProduction() && c.SSO.IssuerURL == "" {
		// Local/dev fallback so the SSO flow stays testable without a provider.
		c.SSO.AllowMock = true
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optionalDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func boolEnv(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return false
	}
	return b
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
