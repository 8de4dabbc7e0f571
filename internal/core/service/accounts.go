package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
)

// Accounts exposes the signed-in user's account details and quota.
type Accounts struct {
	api     ports.AccountAPI
	session SessionRefresher
	log     zerolog.Logger
}

var _ ports.AccountService = (*Accounts)(nil)

func NewAccounts(api ports.AccountAPI, session SessionRefresher, log zerolog.Logger) *Accounts {
	return &Accounts{api: api, session: session, log: log}
}

func (a *Accounts) Usage(ctx context.Context) (*domain.Usage, error) {
	if _, ok := a.session.User(); !ok {
		return nil, domain.ErrNotAuthenticated
	}
	u, err := a.api.Usage(ctx)
	if err != nil {
		return nil, fmt.Errorf("usage: %w", err)
	}
	return u, nil
}

func (a *Accounts) Account(ctx context.Context) (*domain.Account, error) {
	if _, ok := a.session.User(); !ok {
		return nil, domain.ErrNotAuthenticated
	}
	acc, err := a.api.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	return acc, nil
}

// RegenerateAPIKey issues a new API key and reloads the profile so the
// cached user carries it.
func (a *Accounts) RegenerateAPIKey(ctx context.Context) (*domain.APIKeyRotation, error) {
	if _, ok := a.session.User(); !ok {
		return nil, domain.ErrNotAuthenticated
	}
	rot, err := a.api.RegenerateAPIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("regenerate api key: %w", err)
	}
	if err := a.session.RefreshUser(ctx); err != nil {
		a.log.Warn().Err(err).Msg("api key rotated but failed to reload profile")
	}
	a.log.Info().Msg("api key regenerated")
	return rot, nil
}
