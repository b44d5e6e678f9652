package banks

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
)

type Repository interface {
	// GetLatestByUser returns the most recently created bank account of the
	// user, or common.ErrorNotFound when there is none.
	GetLatestByUser(ctx context.Context, userID string) (*models.Bank, error)
}
