package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdelta/deltagate/internal/domain/model"
)

func TestRecipientServiceCreateD2D(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	created, oerr := svc.CreateD2D(context.Background(), testWorkspace, "partner", "aws:us-east-1:metastore-1", "partner org", "code-123")
	require.Nil(t, oerr)
	assert.Equal(t, model.AuthDatabricks, created.AuthType)
	assert.Equal(t, "aws:us-east-1:metastore-1", client.lastCreate.GlobalMetastoreID)
	assert.Equal(t, "code-123", client.lastCreate.SharingCode)
}

func TestRecipientServiceCreateD2O(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	created, oerr := svc.CreateD2O(context.Background(), testWorkspace, "external", "open sharing", []string{"203.0.113.0/24"})
	require.Nil(t, oerr)
	assert.Equal(t, model.AuthToken, created.AuthType)
	assert.Equal(t, []string{"203.0.113.0/24"}, client.lastCreate.IPAccessList)
}

func TestRecipientServiceCreateConflict(t *testing.T) {
	client := &mockSharingClient{recipient: &model.Recipient{Name: "partner"}}
	_, svc := newTestStack(client)

	_, oerr := svc.CreateD2O(context.Background(), testWorkspace, "partner", "", nil)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeConflict, oerr.Kind)
	assert.NotContains(t, client.calls, "CreateRecipient")
}

func TestRecipientServiceGetNotFound(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	_, oerr := svc.Get(context.Background(), testWorkspace, "missing")
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeNotFound, oerr.Kind)
}

func TestRecipientServiceUpdateIPAccess(t *testing.T) {
	client := &mockSharingClient{recipient: &model.Recipient{
		Name:         "external",
		AuthType:     model.AuthToken,
		IPAccessList: []string{"203.0.113.1", "203.0.113.2"},
	}}
	_, svc := newTestStack(client)

	_, oerr := svc.UpdateIPAccess(context.Background(), testWorkspace, "external",
		[]string{"198.51.100.7", "203.0.113.1"}, // duplicate addition collapses
		[]string{"203.0.113.2", "192.0.2.9"},    // revoking an absent entry is a no-op
	)
	require.Nil(t, oerr)
	assert.Equal(t, []string{"203.0.113.1", "198.51.100.7"}, client.lastPatch.IPAccessList)
}

func TestRecipientServiceUpdateIPAccessRejectsD2D(t *testing.T) {
	client := &mockSharingClient{recipient: &model.Recipient{
		Name:     "partner",
		AuthType: model.AuthDatabricks,
	}}
	_, svc := newTestStack(client)

	_, oerr := svc.UpdateIPAccess(context.Background(), testWorkspace, "partner", []string{"203.0.113.1"}, nil)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeBadRequest, oerr.Kind)
	assert.NotContains(t, client.calls, "UpdateRecipient")
}

func TestRecipientServiceUpdate(t *testing.T) {
	comment := "updated"
	expiration := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	client := &mockSharingClient{recipient: &model.Recipient{Name: "external", AuthType: model.AuthToken}}
	_, svc := newTestStack(client)

	_, oerr := svc.Update(context.Background(), testWorkspace, "external", model.RecipientPatch{
		Comment:        &comment,
		ExpirationTime: &expiration,
	})
	require.Nil(t, oerr)
	require.NotNil(t, client.lastPatch.Comment)
	assert.Equal(t, "updated", *client.lastPatch.Comment)
	require.NotNil(t, client.lastPatch.ExpirationTime)
	assert.Equal(t, expiration, *client.lastPatch.ExpirationTime)
}

func TestRecipientServiceUpdateDescription(t *testing.T) {
	client := &mockSharingClient{recipient: &model.Recipient{Name: "external", AuthType: model.AuthToken}}
	_, svc := newTestStack(client)

	_, oerr := svc.UpdateDescription(context.Background(), testWorkspace, "external", "new comment")
	require.Nil(t, oerr)
	require.NotNil(t, client.lastPatch.Comment)
	assert.Equal(t, "new comment", *client.lastPatch.Comment)
	assert.Nil(t, client.lastPatch.ExpirationTime)
}

func TestRecipientServiceUpdateExpiration(t *testing.T) {
	expiration := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)

	client := &mockSharingClient{recipient: &model.Recipient{Name: "external", AuthType: model.AuthToken}}
	_, svc := newTestStack(client)

	_, oerr := svc.UpdateExpiration(context.Background(), testWorkspace, "external", expiration)
	require.Nil(t, oerr)
	require.NotNil(t, client.lastPatch.ExpirationTime)
	assert.Equal(t, expiration, *client.lastPatch.ExpirationTime)
	assert.Nil(t, client.lastPatch.Comment)
}

func TestRecipientServiceUpdateNotFound(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	comment := "updated"
	_, oerr := svc.Update(context.Background(), testWorkspace, "missing", model.RecipientPatch{Comment: &comment})
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeNotFound, oerr.Kind)
	assert.NotContains(t, client.calls, "UpdateRecipient")
}

func TestRecipientServiceRotateTokenNegative(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	_, oerr := svc.RotateToken(context.Background(), testWorkspace, "external", -1)
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeBadRequest, oerr.Kind)
	assert.Empty(t, client.calls)
}

func TestRecipientServiceRotateToken(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	rotated, oerr := svc.RotateToken(context.Background(), testWorkspace, "external", 3600)
	require.Nil(t, oerr)
	assert.Equal(t, "external", rotated.Name)
}

func TestRecipientServiceDeleteNotFound(t *testing.T) {
	client := &mockSharingClient{}
	_, svc := newTestStack(client)

	oerr := svc.Delete(context.Background(), testWorkspace, "missing")
	require.NotNil(t, oerr)
	assert.Equal(t, model.OutcomeNotFound, oerr.Kind)
	assert.NotContains(t, client.calls, "DeleteRecipient")
}

func TestMergeIPList(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		add     []string
		revoke  []string
		want    []string
	}{
		{
			name:    "add to empty",
			add:     []string{"203.0.113.1"},
			want:    []string{"203.0.113.1"},
		},
		{
			name:    "revoke existing",
			current: []string{"203.0.113.1", "203.0.113.2"},
			revoke:  []string{"203.0.113.1"},
			want:    []string{"203.0.113.2"},
		},
		{
			name:    "duplicate add collapses",
			current: []string{"203.0.113.1"},
			add:     []string{"203.0.113.1"},
			want:    []string{"203.0.113.1"},
		},
		{
			name:    "revoke wins over add",
			current: []string{"203.0.113.1"},
			add:     []string{"203.0.113.2"},
			revoke:  []string{"203.0.113.2"},
			want:    []string{"203.0.113.1"},
		},
		{
			name:    "revoke absent entry is no-op",
			current: []string{"203.0.113.1"},
			revoke:  []string{"192.0.2.9"},
			want:    []string{"203.0.113.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeIPList(tt.current, tt.add, tt.revoke))
		})
	}
}
