// Package services contains the business logic of works-server: the Misoca
// token lifecycle, invoice reconciliation, and supplier and invoice use
// cases consumed by the GraphQL resolvers and the batch command.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
	"golang.org/x/sync/singleflight"
)

// TokenManager keeps a user's Misoca refresh token current. Every refresh
// rotates the stored token; the access token is returned to the caller and
// never persisted.
type TokenManager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	client      TokenClient
	log         logging.Logger

	// refreshes coalesces concurrent refreshes of the same user, since the
	// remote side invalidates the presented refresh token on first use.
	refreshes singleflight.Group
}

// NewTokenManager constructs a TokenManager storing rotated tokens through
// the user repository in m.
func NewTokenManager(db *sql.DB, m repomanager.RepositoryManager, client TokenClient, log logging.Logger) *TokenManager {
	return &TokenManager{
		db:          db,
		repomanager: m,
		client:      client,
		log:         log.With("module", "tokens"),
	}
}

// AuthorizeURL is the consent page that starts the connect flow.
func (m *TokenManager) AuthorizeURL(state string) string {
	return m.client.AuthCodeURL(state)
}

// EnsureAccessToken refreshes the user's token pair and returns the new
// access token. A user without a stored refresh token yields
// common.ErrNotConnected and no remote call is made.
//
// The shared refresh is detached from the caller's cancellation: once the
// remote side rotates the token the new one must be stored, whoever is still
// waiting. A cancelled caller stops waiting without affecting the others.
func (m *TokenManager) EnsureAccessToken(ctx context.Context, userID string, now time.Time) (string, error) {
	ch := m.refreshes.DoChan(userID, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx), userID, now)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: wait for token refresh: %w", common.ErrorInternal, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			m.log.Debug(ctx, "shared token refresh", "user_id", userID)
		}
		return res.Val.(string), nil
	}
}

func (m *TokenManager) refresh(ctx context.Context, userID string, now time.Time) (string, error) {
	user, err := m.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsConnected() {
		return "", common.ErrNotConnected
	}

	pair, err := m.client.RefreshTokens(ctx, user.MisocaRefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: refresh misoca token: %w", common.ErrorInternal, err)
	}

	if err := m.storeRefreshToken(ctx, user, pair.RefreshToken, now); err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// Connect redeems an authorization code, stores the resulting refresh token
// and returns the access token.
func (m *TokenManager) Connect(ctx context.Context, userID, code string, now time.Time) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty authorization code", common.ErrBadRequest)
	}

	user, err := m.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}

	pair, err := m.client.ExchangeCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: exchange misoca code: %w", common.ErrorInternal, err)
	}

	if err := m.storeRefreshToken(ctx, user, pair.RefreshToken, now); err != nil {
		return "", err
	}
	m.log.Info(ctx, "misoca connected", "user_id", userID)
	return pair.AccessToken, nil
}

func (m *TokenManager) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := m.repomanager.Users(m.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: load user: %w", common.ErrorInternal, err)
	}
	return user, nil
}

func (m *TokenManager) storeRefreshToken(ctx context.Context, user *models.User, token string, now time.Time) error {
	user.UpdateRefreshToken(token, now)
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return m.repomanager.Users(tx).Update(ctx, user)
	})
	if err != nil {
		// The remote side has already rotated; the old token is gone.
		m.log.Error(ctx, "refresh token not persisted", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: store refresh token: %w", common.ErrorInternal, err)
	}
	return nil
}
