package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/models"
	"github.com/akihokurino/works-server/internal/server/repositories/repomanager"
)

// UserService manages the local account row behind a bearer token subject.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewUserService constructs a UserService over db and the repositories in m.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *UserService {
	return &UserService{db: db, repomanager: m, log: log.With("module", "users")}
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: get user: %w", common.ErrorInternal, err)
	}
	return user, nil
}

// Authenticate returns the account of userID, creating it on first sight.
func (s *UserService) Authenticate(ctx context.Context, userID string, now time.Time) (*models.User, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Get(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: get user: %w", common.ErrorInternal, err)
	}

	user = models.NewUser(userID, now)
	if err := repo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent first request of the same user.
		if existing, getErr := repo.Get(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: create user: %w", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "user created", "user_id", userID)
	return user, nil
}

// ListConnected returns every user holding a Misoca refresh token.
func (s *UserService) ListConnected(ctx context.Context) ([]*models.User, error) {
	all, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", common.ErrorInternal, err)
	}
	var out []*models.User
	for _, u := range all {
		if u.IsConnected() {
			out = append(out, u)
		}
	}
	return out, nil
}

// Sender returns the issuer block of userID, or nil when none is registered.
func (s *UserService) Sender(ctx context.Context, userID string) (*models.Sender, error) {
	sender, err := s.repomanager.Senders(s.db).GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get sender: %w", common.ErrorInternal, err)
	}
	return sender, nil
}

// Bank returns the transfer account of userID, or nil when none is registered.
func (s *UserService) Bank(ctx context.Context, userID string) (*models.Bank, error) {
	bank, err := s.repomanager.Banks(s.db).GetLatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get bank: %w", common.ErrorInternal, err)
	}
	return bank, nil
}
