package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opsdelta/deltagate/internal/domain/model"
	"github.com/opsdelta/deltagate/internal/domain/port/driven"
)

// ShareService implements the share operations of the facade. Every call
// validates the caller-supplied destination, obtains a live credential, and
// issues the vendor call; all failures come back as classified outcomes.
type ShareService struct {
	validator *EndpointValidator
	tokens    *TokenCache
	client    driven.SharingClient
	logger    *slog.Logger
	now       func() time.Time
}

// NewShareService creates a ShareService with the required dependencies.
func NewShareService(validator *EndpointValidator, tokens *TokenCache, client driven.SharingClient, logger *slog.Logger) *ShareService {
	return &ShareService{
		validator: validator,
		tokens:    tokens,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns shares on the destination workspace, optionally filtered to
// names containing filter (substring match, as the vendor API has no
// server-side name filter for shares).
func (s *ShareService) List(ctx context.Context, rawDest, filter string, maxResults int) ([]model.Share, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	shares, err := s.client.ListShares(ctx, dest, cred.Token, maxResults)
	if err != nil {
		return nil, classified(err)
	}

	if filter != "" {
		filtered := shares[:0]
		for _, share := range shares {
			if strings.Contains(share.Name, filter) {
				filtered = append(filtered, share)
			}
		}
		shares = filtered
	}

	if shares == nil {
		shares = []model.Share{}
	}
	return shares, nil
}

// Get returns the named share, or a NotFound outcome when it does not exist.
func (s *ShareService) Get(ctx context.Context, rawDest, name string) (*model.Share, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	share, err := s.client.GetShare(ctx, dest, cred.Token, name)
	if err != nil {
		return nil, classified(err)
	}
	if share == nil {
		return nil, outcome(model.OutcomeNotFound, fmt.Errorf("share %q does not exist", name))
	}
	return share, nil
}

// Create creates a new share. An existing share of the same name yields a
// Conflict outcome before any create call is attempted.
func (s *ShareService) Create(ctx context.Context, rawDest string, share model.NewShare) (*model.Share, *model.OutcomeError) {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	existing, err := s.client.GetShare(ctx, dest, cred.Token, share.Name)
	if err != nil {
		return nil, classified(err)
	}
	if existing != nil {
		return nil, outcome(model.OutcomeConflict, fmt.Errorf("share %q already exists", share.Name))
	}

	created, err := s.client.CreateShare(ctx, dest, cred.Token, share)
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("share created", "share", share.Name, "workspace", dest.Host)
	return created, nil
}

// UpdateObjects applies add/remove updates to the share's data objects and
// returns the updated share.
func (s *ShareService) UpdateObjects(ctx context.Context, rawDest, name string, updates []model.SharedObjectUpdate) (*model.Share, *model.OutcomeError) {
	if len(updates) == 0 {
		return nil, outcome(model.OutcomeBadRequest, fmt.Errorf("no object updates supplied for share %q", name))
	}

	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return nil, oerr
	}

	updated, err := s.client.UpdateShareObjects(ctx, dest, cred.Token, name, updates)
	if err != nil {
		return nil, classified(err)
	}

	s.logger.Info("share objects updated", "share", name, "updates", len(updates), "workspace", dest.Host)
	return updated, nil
}

// Delete removes the named share. A missing share yields a NotFound outcome.
func (s *ShareService) Delete(ctx context.Context, rawDest, name string) *model.OutcomeError {
	dest, cred, oerr := prepareCall(ctx, s.validator, s.tokens, rawDest, s.now())
	if oerr != nil {
		return oerr
	}

	existing, err := s.client.GetShare(ctx, dest, cred.Token, name)
	if err != nil {
		return classified(err)
	}
	if existing == nil {
		return outcome(model.OutcomeNotFound, fmt.Errorf("share %q does not exist", name))
	}

	if err := s.client.DeleteShare(ctx, dest, cred.Token, name); err != nil {
		return classified(err)
	}

	s.logger.Info("share deleted", "share", name, "workspace", dest.Host)
	return nil
}

// prepareCall certifies the destination and obtains a live credential, in
// that order: no credential is spent on an address that fails validation.
func prepareCall(ctx context.Context, validator *EndpointValidator, tokens *TokenCache, rawDest string, now time.Time) (model.Destination, model.Credential, *model.OutcomeError) {
	dest, err := validator.Validate(ctx, rawDest)
	if err != nil {
		return model.Destination{}, model.Credential{}, classified(err)
	}

	cred, err := tokens.Credential(ctx, now)
	if err != nil {
		return model.Destination{}, model.Credential{}, classified(err)
	}

	return dest, cred, nil
}
