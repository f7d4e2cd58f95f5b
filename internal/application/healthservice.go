package application

import (
	"context"
	"time"
)

// Pinger is the slice of the database handle the health service needs.
// *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Readiness is the result of the readiness probe: per-dependency check
// results plus the overall verdict.
type Readiness struct {
	Ready  bool
	Checks map[string]string
	Error  string
}

// HealthService answers the liveness and readiness probes. Liveness is
// trivially healthy while the process serves requests; readiness verifies
// the credential configuration and the audit database.
type HealthService struct {
	hasCredentials bool
	tokens         *TokenCache
	db             Pinger
	now            func() time.Time
}

// NewHealthService creates a HealthService. hasCredentials reflects whether
// the identity-provider client credentials were configured at startup.
func NewHealthService(hasCredentials bool, tokens *TokenCache, db Pinger) *HealthService {
	return &HealthService{
		hasCredentials: hasCredentials,
		tokens:         tokens,
		db:             db,
		now:            time.Now,
	}
}

// Readiness runs the dependency checks. A missing credential configuration or
// an unreachable database marks the service not ready; a cold token cache
// does not, since the first business request warms it.
func (s *HealthService) Readiness(ctx context.Context) Readiness {
	checks := map[string]string{
		"authentication": "ok",
		"database":       "ok",
		"token_cache":    "cold",
	}
	ready := true
	var firstErr string

	if !s.hasCredentials {
		checks["authentication"] = "failed"
		ready = false
		firstErr = "authentication credentials not configured"
	}

	if err := s.db.PingContext(ctx); err != nil {
		checks["database"] = "failed"
		ready = false
		if firstErr == "" {
			firstErr = "audit database unreachable: " + err.Error()
		}
	}

	if s.tokens.Valid(s.now()) {
		checks["token_cache"] = "warm"
	}

	return Readiness{
		Ready:  ready,
		Checks: checks,
		Error:  firstErr,
	}
}
