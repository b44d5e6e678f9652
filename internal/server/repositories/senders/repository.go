package senders

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
)

type Repository interface {
	// GetLatestByUser returns the most recently created sender of the user,
	// or common.ErrorNotFound when there is none.
	GetLatestByUser(ctx context.Context, userID string) (*models.Sender, error)
}
