// Package probe implements the WorkspaceProber port: DNS resolution of the
// destination host followed by a bounded HEAD request.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// DefaultTimeout bounds the whole probe (lookup plus HEAD) so one unreachable
// destination cannot stall a request indefinitely.
const DefaultTimeout = 5 * time.Second

// Compile-time interface satisfaction check.
var _ driven.WorkspaceProber = (*Prober)(nil)

// Prober checks destination reachability. It sends no credentials: the probe
// runs before any token is attached to the request path.
type Prober struct {
	resolver *net.Resolver
	client   *http.Client
	timeout  time.Duration
}

// NewProber creates a Prober with the given per-probe timeout. timeout <= 0
// falls back to DefaultTimeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		resolver: net.DefaultResolver,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

// NewProberWithClient creates a Prober with a custom http.Client and
// resolver. Intended for testing.
func NewProberWithClient(client *http.Client, resolver *net.Resolver, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		resolver: resolver,
		client:   client,
		timeout:  timeout,
	}
}

// Probe resolves dest's host and issues a HEAD request against it. Any HTTP
// response, including 4xx/5xx, counts as reachable; only transport-level
// failures and timeouts are errors.
func (p *Prober) Probe(ctx context.Context, dest model.Destination) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	host := dest.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	addrs, err := p.resolver.LookupHost(ctx, host)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolving %s: no addresses", host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, dest.BaseURL()+"/", nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", dest.Host, err)
	}
	_ = resp.Body.Close()

	return nil
}
