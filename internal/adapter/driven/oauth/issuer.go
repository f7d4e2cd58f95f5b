// Package oauth implements the TokenIssuer port with an OAuth2
// client-credentials exchange against the Databricks account OIDC token
// endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenIssuer = (*Issuer)(nil)

// DefaultTokenURL returns the account-level OIDC token endpoint for the given
// Databricks account id.
func DefaultTokenURL(accountID string) string {
	return fmt.Sprintf("https://accounts.azuredatabricks.net/oidc/accounts/%s/v1/token", url.PathEscape(accountID))
}

// Issuer performs one token-endpoint exchange per Issue call. It holds no
// cache and no clock; the application-layer token cache owns both.
type Issuer struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewIssuer creates an Issuer authenticating with the given service principal.
func NewIssuer(tokenURL, clientID, clientSecret string) *Issuer {
	return &Issuer{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewIssuerWithHTTPClient creates an Issuer with a custom http.Client.
// Intended for testing against an httptest server.
func NewIssuerWithHTTPClient(tokenURL, clientID, clientSecret string, httpClient *http.Client) *Issuer {
	return &Issuer{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
	}
}

// tokenResponse is the token endpoint's success body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue exchanges the client credentials for a bearer token scoped to all
// APIs. Any failure (transport, non-2xx status, malformed body) is returned
// as an error; no partial result is ever produced.
func (i *Issuer) Issue(ctx context.Context) (driven.IssuedToken, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"all-apis"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(i.clientID, i.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return driven.IssuedToken{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return driven.IssuedToken{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return driven.IssuedToken{}, fmt.Errorf("parsing token response: %w", err)
	}
	if tr.AccessToken == "" {
		return driven.IssuedToken{}, fmt.Errorf("token response has no access_token")
	}
	if tr.ExpiresIn <= 0 {
		return driven.IssuedToken{}, fmt.Errorf("token response has invalid expires_in %d", tr.ExpiresIn)
	}

	return driven.IssuedToken{
		AccessToken: tr.AccessToken,
		ExpiresIn:   time.Duration(tr.ExpiresIn) * time.Second,
	}, nil
}
