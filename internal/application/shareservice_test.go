package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

const testWorkspace = "https://acme.cloud.databricks.com"

// mockSharingClient implements driven.SharingClient with canned responses and
// call recording. Per-method error fields let one call fail while others
// succeed.
type mockSharingClient struct {
	shares     []model.Share
	share      *model.Share
	recipients []model.Recipient
	recipient  *model.Recipient

	listErr   error
	getErr    error
	createErr error
	updateErr error
	deleteErr error
	rotateErr error

	calls      []string
	lastToken  string
	lastPatch  model.RecipientPatch
	lastCreate model.NewRecipient
}

func (m *mockSharingClient) record(call, token string) {
	m.calls = append(m.calls, call)
	m.lastToken = token
}

func (m *mockSharingClient) ListShares(_ context.Context, _ model.Destination, token string, _ int) ([]model.Share, error) {
	m.record("ListShares", token)
	return m.shares, m.listErr
}

func (m *mockSharingClient) GetShare(_ context.Context, _ model.Destination, token, _ string) (*model.Share, error) {
	m.record("GetShare", token)
	return m.share, m.getErr
}

func (m *mockSharingClient) CreateShare(_ context.Context, _ model.Destination, token string, share model.NewShare) (*model.Share, error) {
	m.record("CreateShare", token)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &model.Share{Name: share.Name, Comment: share.Comment}, nil
}

func (m *mockSharingClient) UpdateShareObjects(_ context.Context, _ model.Destination, token, name string, _ []model.SharedObjectUpdate) (*model.Share, error) {
	m.record("UpdateShareObjects", token)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &model.Share{Name: name}, nil
}

func (m *mockSharingClient) DeleteShare(_ context.Context, _ model.Destination, token, _ string) error {
	m.record("DeleteShare", token)
	return m.deleteErr
}

func (m *mockSharingClient) ListRecipients(_ context.Context, _ model.Destination, token string, _ int) ([]model.Recipient, error) {
	m.record("ListRecipients", token)
	return m.recipients, m.listErr
}

func (m *mockSharingClient) GetRecipient(_ context.Context, _ model.Destination, token, _ string) (*model.Recipient, error) {
	m.record("GetRecipient", token)
	return m.recipient, m.getErr
}

func (m *mockSharingClient) CreateRecipient(_ context.Context, _ model.Destination, token string, recipient model.NewRecipient) (*model.Recipient, error) {
	m.record("CreateRecipient", token)
	m.lastCreate = recipient
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &model.Recipient{Name: recipient.Name, AuthType: recipient.AuthType}, nil
}

func (m *mockSharingClient) UpdateRecipient(_ context.Context, _ model.Destination, token, name string, patch model.RecipientPatch) (*model.Recipient, error) {
	m.record("UpdateRecipient", token)
	m.lastPatch = patch
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &model.Recipient{Name: name, IPAccessList: patch.IPAccessList}, nil
}

func (m *mockSharingClient) RotateRecipientToken(_ context.Context, _ model.Destination, token, name string, _ int64) (*model.Recipient, error) {
	m.record("RotateRecipientToken", token)
	if m.rotateErr != nil {
		return nil, m.rotateErr
	}
	return &model.Recipient{Name: name, AuthType: model.AuthToken}, nil
}

func (m *mockSharingClient) DeleteRecipient(_ context.Context, _ model.Destination, token, _ string) error {
	m.record("DeleteRecipient", token)
	return m.deleteErr
}

// newTestStack wires a ShareService and RecipientService over always-valid
// endpoint validation and a canned token.
func newTestStack(client *mockSharingClient) (*ShareService, *RecipientService) {
	logger := testLogger()
	issuer := &mockIssuer{token: "tok-test", expiresIn: time.Hour}
	tokens := NewTokenCache(issuer, "acct-1", DefaultRefreshBuffer, logger)
	validator := NewEndpointValidator(&mockProber{}, nil, logger)

	shares := NewShareService(validator, tokens, client, logger)
	recipients := NewRecipientService(validator, tokens, client, logger)
	return shares, recipients
}

func TestShareServiceList(t *testing.T) {
	client := &mockSharingClient{shares: []model.Share{
		{Name: "sales_eu"},
		{Name: "sales_us"},
		{Name: "marketing"},
	}}
	svc, _ := newTestStack(client)

	shares, oerr := svc.List(context.Background(), testWorkspace, "", 0)
	require.Nil(t, oerr)
	assert.Len(t, shares, 3)
	assert.Equal(t, "tok-test", client.lastToken)
}

func TestShareServiceListFilter(t *testing.T) {
	client := &mockSharingClient{shares: []model.Share{
		{Name: "sales_eu"},
		{Name: "sales_us"},
		{Name: "marketing"},
	}}
	svc, _ := newTestStack(client)

	shares, oerr := svc.List(context.Background(), testWorkspace, "sales", 0)
	require.Nil(t, oerr)
	require.Len(t, shares, 2)
	assert.Equal(t, "sales_eu", shares[0].Name)
	assert.Equal(t, "sales_us", shares[1].Name)
}

func TestShareServiceListEmptyNotNil(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	shares, oerr := svc.List(context.Background(), testWorkspace, "", 0)
	require.Nil(t, oerr)
	assert.NotNil(t, shares)
	assert.Empty(t, shares)
}

func TestShareServiceGetNotFound(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	share, oerr := svc.Get(context.Background(), testWorkspace, "missing")
	assert.Nil(t, share)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeNotFound, oerr.Kind)
}

func TestShareServiceCreateConflict(t *testing.T) {
	client := &mockSharingClient{share: &model.Share{Name: "sales_eu"}}
	svc, _ := newTestStack(client)

	_, oerr := svc.Create(context.Background(), testWorkspace, model.NewShare{Name: "sales_eu"})
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeConflict, oerr.Kind)
	assert.NotContains(t, client.calls, "CreateShare", "a conflicting create must stop at the pre-check")
}

func TestShareServiceCreate(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	created, oerr := svc.Create(context.Background(), testWorkspace, model.NewShare{Name: "sales_eu", Comment: "EU data"})
	require.Nil(t, oerr)
	assert.Equal(t, "sales_eu", created.Name)
	assert.Equal(t, []string{"GetShare", "CreateShare"}, client.calls)
}

func TestShareServiceUpdateObjectsEmpty(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	_, oerr := svc.UpdateObjects(context.Background(), testWorkspace, "sales_eu", nil)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeBadRequest, oerr.Kind)
	assert.Empty(t, client.calls, "an empty update must not reach the vendor")
}

func TestShareServiceDeleteNotFound(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	oerr := svc.Delete(context.Background(), testWorkspace, "missing")
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeNotFound, oerr.Kind)
	assert.NotContains(t, client.calls, "DeleteShare")
}

func TestShareServiceInvalidDestinationShortCircuits(t *testing.T) {
	client := &mockSharingClient{}
	svc, _ := newTestStack(client)

	_, oerr := svc.List(context.Background(), "https://evil.example.com", "", 0)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeInvalidEndpoint, oerr.Kind)
	assert.Empty(t, client.calls, "an invalid destination must never reach the vendor")
}

func TestShareServiceVendorErrorClassified(t *testing.T) {
	client := &mockSharingClient{
		listErr: &driven.VendorError{StatusCode: 403, Code: "PERMISSION_DENIED", Message: "no"},
	}
	svc, _ := newTestStack(client)

	_, oerr := svc.List(context.Background(), testWorkspace, "", 0)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomePermissionDenied, oerr.Kind)
}
