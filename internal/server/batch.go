package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/models"
)

type connectedUsers interface {
	ListConnected(ctx context.Context) ([]*models.User, error)
}

type userSyncer interface {
	SyncUser(ctx context.Context, userID string, now time.Time) error
}

// syncAll syncs each connected user in turn. A user whose link was revoked
// meanwhile is skipped; other failures are collected and do not stop the run.
func syncAll(ctx context.Context, users connectedUsers, s userSyncer, now func() time.Time, log logging.Logger) error {
	list, err := users.ListConnected(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, u := range list {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		err := s.SyncUser(ctx, u.ID, now())
		switch {
		case err == nil:
			log.Info(ctx, "user synced", "user_id", u.ID)
		case errors.Is(err, common.ErrNotConnected):
			log.Warn(ctx, "user not connected, skipped", "user_id", u.ID)
		default:
			log.Error(ctx, "user sync failed", "user_id", u.ID, "error", err)
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}
