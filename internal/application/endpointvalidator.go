package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// DefaultHostSuffixes are the managed-service domains accepted as workspace
// hosts, one per supported cloud provider.
var DefaultHostSuffixes = []string{
	".cloud.databricks.com", // AWS
	".azuredatabricks.net",  // Azure
	".gcp.databricks.com",   // GCP
}

var (
	// ErrInvalidEndpoint marks a destination rejected on syntactic grounds:
	// unparseable, non-HTTPS, or an unrecognized host.
	ErrInvalidEndpoint = errors.New("invalid workspace endpoint")

	// ErrEndpointUnreachable marks a destination that is syntactically
	// acceptable but failed DNS resolution or the liveness probe. Distinct
	// from ErrInvalidEndpoint so callers can report a transient condition
	// instead of a malformed request.
	ErrEndpointUnreachable = errors.New("workspace endpoint unreachable")
)

// EndpointValidator decides, per inbound request, whether a caller-supplied
// destination address may receive a credentialed call. It holds no
// cross-request cache: one caller's validated address must not vouch for a
// different caller's claim. It also has no access to credential values.
type EndpointValidator struct {
	prober   driven.WorkspaceProber
	suffixes []string
	logger   *slog.Logger
}

// NewEndpointValidator creates a validator accepting hosts matching the given
// suffixes. An empty list falls back to DefaultHostSuffixes.
func NewEndpointValidator(prober driven.WorkspaceProber, suffixes []string, logger *slog.Logger) *EndpointValidator {
	if len(suffixes) == 0 {
		suffixes = DefaultHostSuffixes
	}
	return &EndpointValidator{
		prober:   prober,
		suffixes: suffixes,
		logger:   logger,
	}
}

// Validate checks raw syntactically and then probes it for reachability.
// Syntactic rejections wrap ErrInvalidEndpoint; DNS or probe failures wrap
// ErrEndpointUnreachable with the cause preserved on the chain.
func (v *EndpointValidator) Validate(ctx context.Context, raw string) (model.Destination, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return model.Destination{}, fmt.Errorf("%w: parsing %q: %v", ErrInvalidEndpoint, raw, err)
	}

	if u.Scheme != "https" {
		return model.Destination{}, fmt.Errorf("%w: scheme %q is not https", ErrInvalidEndpoint, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return model.Destination{}, fmt.Errorf("%w: %q has no host", ErrInvalidEndpoint, raw)
	}

	if !v.allowedHost(host) {
		return model.Destination{}, fmt.Errorf("%w: host %q matches no accepted workspace domain", ErrInvalidEndpoint, host)
	}

	dest := model.Destination{
		Raw:    raw,
		Scheme: u.Scheme,
		Host:   host,
	}

	if err := v.prober.Probe(ctx, dest); err != nil {
		v.logger.Warn("workspace probe failed", "host", host, "error", err)
		return model.Destination{}, fmt.Errorf("%w: %s: %v", ErrEndpointUnreachable, host, err)
	}

	return dest, nil
}

func (v *EndpointValidator) allowedHost(host string) bool {
	lower := strings.ToLower(host)
	for _, suffix := range v.suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
