package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// RecipientService implements the recipient operations of the facade,
// composed the same way as ShareService: destination validation first, then
// the cached credential, then the vendor call, with classified outcomes.
type RecipientService struct {
	validator *EndpointValidator
	tokens    *TokenCache
	client    driven.SharingClient
	logger    *slog.Logger
	now       func() time.Time
}

// NewRecipientService creates a RecipientService with the required dependencies.
func NewRecipientService(validator *EndpointValidator, tokens *TokenCache, client driven.SharingClient, logger *slog.Logger) *RecipientService {
	return &RecipientService{
		validator: validator,
		tokens:    tokens,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns recipients on the destination workspace.
func (s *RecipientService) List(ctx context.Context, rawDest string, maxResults int) ([]model.Recipient, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	recipients, err := s.client.ListRecipients(ctx, dest, cred.Token, maxResults)
	if err != nil {
		return nil, classified(err)
	}
	if recipients == nil {
		recipients = []model.Recipient{}
	}
	return recipients, nil
}

// Get returns the named recipient, or a NotFound outcome when it does not exist.
func (s *RecipientService) Get(ctx context.Context, rawDest, name string) (*model.Recipient, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	recipient, err := s.client.GetRecipient(ctx, dest, cred.Token, name)
	if err != nil {
		return nil, classified(err)
	}
	if recipient == nil {
		return nil, outcome(model.OutcomeNotFound, fmt.Errorf("recipient %q does not exist", name))
	}
	return recipient, nil
}

// CreateD2D creates a Databricks-to-Databricks recipient identified by the
// consumer metastore's global id. An existing recipient of the same name
// yields a Conflict outcome.
func (s *RecipientService) CreateD2D(ctx context.Context, rawDest, name, metastoreID, comment, sharingCode string) (*model.Recipient, *model.OutcomeError) {
	return s.create(ctx, rawDest, model.NewRecipient{
		Name:              name,
		Comment:           comment,
		AuthType:          model.AuthDatabricks,
		GlobalMetastoreID: metastoreID,
		SharingCode:       sharingCode,
	})
}

// CreateD2O creates an open-sharing recipient authenticated by bearer token,
// optionally restricted to the given IP access list.
func (s *RecipientService) CreateD2O(ctx context.Context, rawDest, name, comment string, ipAccessList []string) (*model.Recipient, *model.OutcomeError) {
	return s.create(ctx, rawDest, model.NewRecipient{
		Name:         name,
		Comment:      comment,
		AuthType:     model.AuthToken,
		IPAccessList: ipAccessList,
	})
}

func (s *RecipientService) create(ctx context.Context, rawDest string, recipient model.NewRecipient) (*model.Recipient, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	existing, err := s.client.GetRecipient(ctx, dest, cred.Token, recipient.Name)
	if err != nil {
		return nil, classified(err)
	}
	if existing != nil {
		return nil, outcome(model.OutcomeConflict, fmt.Errorf("recipient %q already exists", recipient.Name))
	}

	created, err := s.client.CreateRecipient(ctx, dest, cred.Token, recipient)
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("recipient created",
		"recipient", recipient.Name,
		"auth_type", recipient.AuthType,
		"workspace", dest.Host,
	)
	return created, nil
}

// UpdateDescription replaces the recipient's comment.
func (s *RecipientService) UpdateDescription(ctx context.Context, rawDest, name, comment string) (*model.Recipient, *model.OutcomeError) {
	return s.Update(ctx, rawDest, name, model.RecipientPatch{Comment: &comment})
}

// UpdateExpiration sets the recipient's expiration time.
func (s *RecipientService) UpdateExpiration(ctx context.Context, rawDest, name string, expiration time.Time) (*model.Recipient, *model.OutcomeError) {
	return s.Update(ctx, rawDest, name, model.RecipientPatch{ExpirationTime: &expiration})
}

// Update applies the patch to the named recipient. Nil patch fields are left
// unchanged; a missing recipient yields a NotFound outcome.
func (s *RecipientService) Update(ctx context.Context, rawDest, name string, patch model.RecipientPatch) (*model.Recipient, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	existing, err := s.client.GetRecipient(ctx, dest, cred.Token, name)
	if err != nil {
		return nil, classified(err)
	}
	if existing == nil {
		return nil, outcome(model.OutcomeNotFound, fmt.Errorf("recipient %q does not exist", name))
	}

	updated, err := s.client.UpdateRecipient(ctx, dest, cred.Token, name, patch)
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("recipient updated", "recipient", name, "workspace", dest.Host)
	return updated, nil
}

// UpdateIPAccess adds and revokes entries on the recipient's IP access list
// with a read-modify-write against the current list. Revocations of absent
// entries are ignored; duplicate additions collapse.
func (s *RecipientService) UpdateIPAccess(ctx context.Context, rawDest, name string, add, revoke []string) (*model.Recipient, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	recipient, err := s.client.GetRecipient(ctx, dest, cred.Token, name)
	if err != nil {
		return nil, classified(err)
	}
	if recipient == nil {
		return nil, outcome(model.OutcomeNotFound, fmt.Errorf("recipient %q does not exist", name))
	}
	if recipient.AuthType != model.AuthToken {
		return nil, outcome(model.OutcomeBadRequest, fmt.Errorf("recipient %q is not token-authenticated, IP access does not apply", name))
	}

	merged := mergeIPList(recipient.IPAccessList, add, revoke)

	updated, err := s.client.UpdateRecipient(ctx, dest, cred.Token, name, model.RecipientPatch{IPAccessList: merged})
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("recipient ip access updated",
		"recipient", name,
		"added", len(add),
		"revoked", len(revoke),
		"workspace", dest.Host,
	)
	return updated, nil
}

// RotateToken rotates a TOKEN-auth recipient's activation token, expiring the
// previous token after expireIn seconds (zero for immediately).
func (s *RecipientService) RotateToken(ctx context.Context, rawDest, name string, expireIn int64) (*model.Recipient, *model.OutcomeError) {
	if expireIn < 0 {
		return nil, outcome(model.OutcomeBadRequest, fmt.Errorf("expire_in_seconds must not be negative"))
	}

	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	rotated, err := s.client.RotateRecipientToken(ctx, dest, cred.Token, name, expireIn)
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("recipient token rotated", "recipient", name, "workspace", dest.Host)
	return rotated, nil
}

// Delete removes the named recipient. A missing recipient yields a NotFound
// outcome.
func (s *RecipientService) Delete(ctx context.Context, rawDest, name string) *model.OutcomeError {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return oerr
	}

	existing, err := s.client.GetRecipient(ctx, dest, cred.Token, name)
	if err != nil {
		return classified(err)
	}
	if existing == nil {
		return outcome(model.OutcomeNotFound, fmt.Errorf("recipient %q does not exist", name))
	}

	if err := s.client.DeleteRecipient(ctx, dest, cred.Token, name); err != nil {
		return classified(err)
	}

	s.logger.Info("recipient deleted", "recipient", name, "workspace", dest.Host)
	return nil
}

func mergeIPList(current, add, revoke []string) []string {
	merged := make([]string, 0, len(current)+len(add))
	for _, ip := range current {
		if !slices.Contains(revoke, ip) {
			merged = append(merged, ip)
		}
	}
	for _, ip := range add {
		if !slices.Contains(merged, ip) && !slices.Contains(revoke, ip) {
			merged = append(merged, ip)
		}
	}
	return merged
}
