// Package databricks implements the SharingClient port against the Unity
// Catalog sharing REST API (/api/2.1/unity-catalog).
package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SharingClient = (*Client)(nil)

const apiPrefix = "/api/2.1/unity-catalog"

// Client is the REST adapter for the sharing API. The transport wraps an
// httpcache memory cache so repeated GETs honor the service's ETags with
// conditional requests. The client holds no credentials: every call receives
// its destination and bearer token from the caller.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client with the caching transport and a 30 second
// overall request timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// ListShares returns all shares on the workspace, following pagination.
func (c *Client) ListShares(ctx context.Context, dest model.Destination, token string, maxResults int) ([]model.Share, error) {
	var shares []model.Share
	pageToken := ""

	for {
		query := url.Values{}
		if maxResults > 0 {
			query.Set("max_results", strconv.Itoa(maxResults))
		}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var page listSharesResponse
		if err := c.do(ctx, dest, token, http.MethodGet, apiPrefix+"/shares", query, nil, &page); err != nil {
			return nil, err
		}

		for _, si := range page.Shares {
			shares = append(shares, toShare(si))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return shares, nil
}

// GetShare returns the named share with its data objects, or (nil, nil) when
// it does not exist.
func (c *Client) GetShare(ctx context.Context, dest model.Destination, token, name string) (*model.Share, error) {
	query := url.Values{"include_shared_data": {"true"}}

	var si shareInfo
	err := c.do(ctx, dest, token, http.MethodGet, apiPrefix+"/shares/"+url.PathEscape(name), query, nil, &si)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	share := toShare(si)
	return &share, nil
}

// CreateShare creates a new share and returns it.
func (c *Client) CreateShare(ctx context.Context, dest model.Destination, token string, share model.NewShare) (*model.Share, error) {
	req := createShareRequest{
		Name:        share.Name,
		Comment:     share.Comment,
		StorageRoot: share.StorageRoot,
	}

	var si shareInfo
	if err := c.do(ctx, dest, token, http.MethodPost, apiPrefix+"/shares", nil, req, &si); err != nil {
		return nil, err
	}

	created := toShare(si)
	return &created, nil
}

// UpdateShareObjects applies add/remove updates to the share's data objects.
func (c *Client) UpdateShareObjects(ctx context.Context, dest model.Destination, token, name string, updates []model.SharedObjectUpdate) (*model.Share, error) {
	req := updateShareRequest{Updates: make([]sharedDataObjectUpdate, 0, len(updates))}
	for _, u := range updates {
		req.Updates = append(req.Updates, sharedDataObjectUpdate{
			Action:     string(u.Action),
			DataObject: fromSharedObject(u.Object),
		})
	}

	var si shareInfo
	if err := c.do(ctx, dest, token, http.MethodPatch, apiPrefix+"/shares/"+url.PathEscape(name), nil, req, &si); err != nil {
		return nil, err
	}

	updated := toShare(si)
	return &updated, nil
}

// DeleteShare removes the named share.
func (c *Client) DeleteShare(ctx context.Context, dest model.Destination, token, name string) error {
	return c.do(ctx, dest, token, http.MethodDelete, apiPrefix+"/shares/"+url.PathEscape(name), nil, nil, nil)
}

// ListRecipients returns all recipients on the workspace, following pagination.
func (c *Client) ListRecipients(ctx context.Context, dest model.Destination, token string, maxResults int) ([]model.Recipient, error) {
	var recipients []model.Recipient
	pageToken := ""

	for {
		query := url.Values{}
		if maxResults > 0 {
			query.Set("max_results", strconv.Itoa(maxResults))
		}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var page listRecipientsResponse
		if err := c.do(ctx, dest, token, http.MethodGet, apiPrefix+"/recipients", query, nil, &page); err != nil {
			return nil, err
		}

		for _, ri := range page.Recipients {
			recipients = append(recipients, toRecipient(ri))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return recipients, nil
}

// GetRecipient returns the named recipient, or (nil, nil) when it does not exist.
func (c *Client) GetRecipient(ctx context.Context, dest model.Destination, token, name string) (*model.Recipient, error) {
	var ri recipientInfo
	err := c.do(ctx, dest, token, http.MethodGet, apiPrefix+"/recipients/"+url.PathEscape(name), nil, nil, &ri)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recipient := toRecipient(ri)
	return &recipient, nil
}

// CreateRecipient creates a new recipient and returns it.
func (c *Client) CreateRecipient(ctx context.Context, dest model.Destination, token string, recipient model.NewRecipient) (*model.Recipient, error) {
	req := createRecipientRequest{
		Name:               recipient.Name,
		AuthenticationType: string(recipient.AuthType),
		Comment:            recipient.Comment,
		GlobalMetastoreID:  recipient.GlobalMetastoreID,
		SharingCode:        recipient.SharingCode,
	}
	if len(recipient.IPAccessList) > 0 {
		req.IPAccessList = &ipAccessList{AllowedIPAddresses: recipient.IPAccessList}
	}

	var ri recipientInfo
	if err := c.do(ctx, dest, token, http.MethodPost, apiPrefix+"/recipients", nil, req, &ri); err != nil {
		return nil, err
	}

	created := toRecipient(ri)
	return &created, nil
}

// UpdateRecipient applies a partial update to the named recipient.
func (c *Client) UpdateRecipient(ctx context.Context, dest model.Destination, token, name string, patch model.RecipientPatch) (*model.Recipient, error) {
	req := updateRecipientRequest{Comment: patch.Comment}
	if patch.ExpirationTime != nil {
		ms := toMillis(*patch.ExpirationTime)
		req.ExpirationTime = &ms
	}
	if patch.IPAccessList != nil {
		req.IPAccessList = &ipAccessList{AllowedIPAddresses: patch.IPAccessList}
	}

	var ri recipientInfo
	if err := c.do(ctx, dest, token, http.MethodPatch, apiPrefix+"/recipients/"+url.PathEscape(name), nil, req, &ri); err != nil {
		return nil, err
	}

	updated := toRecipient(ri)
	return &updated, nil
}

// RotateRecipientToken rotates the recipient's activation token.
func (c *Client) RotateRecipientToken(ctx context.Context, dest model.Destination, token, name string, expireIn int64) (*model.Recipient, error) {
	req := rotateTokenRequest{ExistingTokenExpireInSeconds: expireIn}

	var ri recipientInfo
	if err := c.do(ctx, dest, token, http.MethodPost, apiPrefix+"/recipients/"+url.PathEscape(name)+"/rotate-token", nil, req, &ri); err != nil {
		return nil, err
	}

	rotated := toRecipient(ri)
	return &rotated, nil
}

// DeleteRecipient removes the named recipient.
func (c *Client) DeleteRecipient(ctx context.Context, dest model.Destination, token, name string) error {
	return c.do(ctx, dest, token, http.MethodDelete, apiPrefix+"/recipients/"+url.PathEscape(name), nil, nil, nil)
}

// do issues one request against the destination workspace and decodes the
// response into out (when non-nil). Non-2xx responses are returned as
// *driven.VendorError with the service's error_code and message.
func (c *Client) do(ctx context.Context, dest model.Destination, token, method, path string, query url.Values, body, out any) error {
	endpoint := dest.BaseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return vendorError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// vendorError decodes the sharing API's error envelope. An undecodable body
// still yields a VendorError carrying the status and the raw text.
func vendorError(status int, body []byte) *driven.VendorError {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || (er.ErrorCode == "" && er.Message == "") {
		return &driven.VendorError{StatusCode: status, Message: string(body)}
	}
	return &driven.VendorError{StatusCode: status, Code: er.ErrorCode, Message: er.Message}
}

func isNotFound(err error) bool {
	var vendorErr *driven.VendorError
	return errors.As(err, &vendorErr) && vendorErr.StatusCode == http.StatusNotFound
}
