package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "bkp"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth: AuthConfig{
			AccessSecret:  strings.Repeat("a", 32),
			RefreshSecret: strings.Repeat("b", 32),
		},
		S3: S3Config{AccessKeyID: "key", SecretAccessKey: "secret", Bucket: "uploads"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m access TTL default, got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("expected 30d refresh TTL default, got %v", c.Auth.RefreshTokenTTL)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.S3.Region != "us-east-1" {
		t.Fatalf("expected default region, got %q", c.S3.Region)
	}
	if c.Redis.LoginMaxAttempts != 10 || c.Redis.LoginWindow != 15*time.Minute {
		t.Fatalf("expected limiter defaults, got %d/%v", c.Redis.LoginMaxAttempts, c.Redis.LoginWindow)
	}
	if !c.SSO.AllowMock {
		t.Fatalf("expected mock SSO allowed outside production without an issuer")
	}
}

func TestValidate_RejectsShortSecrets(t *testing.T) {
	c := validConfig()
	c.Auth.AccessSecret = "short"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for short access secret")
	}

	c = validConfig()
	c.Auth.RefreshSecret = strings.Repeat("b", 31)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for 31-byte refresh secret")
	}
}

func TestValidate_RejectsEqualSecrets(t *testing.T) {
	c := validConfig()
	c.Auth.RefreshSecret = c.Auth.AccessSecret
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestValidate_ProductionRequirements(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.SSO.AllowMock = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error: production needs an issuer and forbids mock SSO")
	}

	c = validConfig()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.Issuer = "bkp-platform"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid production config, got %v", err)
	}
	if c.SSO.AllowMock {
		t.Fatalf("mock SSO must stay off in production")
	}
}

func TestValidate_RefreshTTLMustExceedAccessTTL(t *testing.T) {
	c := validConfig()
	c.Auth.AccessTokenTTL = time.Hour
	c.Auth.RefreshTokenTTL = time.Minute
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when refresh TTL <= access TTL")
	}
}
