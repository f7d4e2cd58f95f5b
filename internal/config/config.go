// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment
// variables (and a .env file during local development).
type Config struct {
	// Identity provider / service principal.
	AccountID    string
	ClientID     string
	ClientSecret string
	TokenURL     string

	// Default destination when a request carries no workspace header.
	WorkspaceURL string

	ListenAddr string
	DBPath     string

	RefreshBuffer    time.Duration
	ProbeTimeout     time.Duration
	WorkspaceDomains []string

	LogLevel      string
	AuditMinLevel string
}

// HasCredentials returns true when the service principal triple is fully
// configured. Used by the readiness probe.
func (c *Config) HasCredentials() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Load reads configuration from the environment and returns a validated
// Config. A .env file in the working directory is merged first (local
// development); real environment variables always win.
// Required: DELTAGATE_ACCOUNT_ID, DELTAGATE_CLIENT_ID, DELTAGATE_CLIENT_SECRET.
// Optional with defaults: DELTAGATE_TOKEN_URL (derived from the account id
// when empty), DELTAGATE_WORKSPACE_URL, DELTAGATE_LISTEN_ADDR
// (127.0.0.1:8080), DELTAGATE_DB_PATH (deltagate.db),
// DELTAGATE_REFRESH_BUFFER (5m), DELTAGATE_PROBE_TIMEOUT (5s),
// DELTAGATE_WORKSPACE_DOMAINS, DELTAGATE_LOG_LEVEL (info),
// DELTAGATE_AUDIT_MIN_LEVEL (warn).
func Load() (*Config, error) {
	// godotenv never overrides variables already set in the environment.
	_ = godotenv.Load()

	accountID := os.Getenv("DELTAGATE_ACCOUNT_ID")
	clientID := os.Getenv("DELTAGATE_CLIENT_ID")
	clientSecret := os.Getenv("DELTAGATE_CLIENT_SECRET")

	var missing []string
	if accountID == "" {
		missing = append(missing, "DELTAGATE_ACCOUNT_ID")
	}
	if clientID == "" {
		missing = append(missing, "DELTAGATE_CLIENT_ID")
	}
	if clientSecret == "" {
		missing = append(missing, "DELTAGATE_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	refreshBuffer := 5 * time.Minute
	if v, ok := os.LookupEnv("DELTAGATE_REFRESH_BUFFER"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DELTAGATE_REFRESH_BUFFER has invalid duration %q: %w", v, err)
		}
		refreshBuffer = parsed
	}

	probeTimeout := 5 * time.Second
	if v, ok := os.LookupEnv("DELTAGATE_PROBE_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DELTAGATE_PROBE_TIMEOUT has invalid duration %q: %w", v, err)
		}
		probeTimeout = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("DELTAGATE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "deltagate.db"
	if v, ok := os.LookupEnv("DELTAGATE_DB_PATH"); ok {
		dbPath = v
	}

	var domains []string
	if v, ok := os.LookupEnv("DELTAGATE_WORKSPACE_DOMAINS"); ok && v != "" {
		for _, domain := range strings.Split(v, ",") {
			domain = strings.TrimSpace(domain)
			if domain == "" {
				continue
			}
			if !strings.HasPrefix(domain, ".") {
				domain = "." + domain
			}
			domains = append(domains, strings.ToLower(domain))
		}
	}

	logLevel := "info"
	if v, ok := os.LookupEnv("DELTAGATE_LOG_LEVEL"); ok {
		logLevel = v
	}

	auditMinLevel := "warn"
	if v, ok := os.LookupEnv("DELTAGATE_AUDIT_MIN_LEVEL"); ok {
		auditMinLevel = v
	}

	return &Config{
		AccountID:        accountID,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		TokenURL:         os.Getenv("DELTAGATE_TOKEN_URL"),
		WorkspaceURL:     os.Getenv("DELTAGATE_WORKSPACE_URL"),
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		RefreshBuffer:    refreshBuffer,
		ProbeTimeout:     probeTimeout,
		WorkspaceDomains: domains,
		LogLevel:         logLevel,
		AuditMinLevel:    auditMinLevel,
	}, nil
}
