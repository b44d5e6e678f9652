package suppliers

import (
	"context"

	"github.com/akihokurino/works-server/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.Supplier, error)
	// LockByID reads the supplier and holds a row lock until the surrounding
	// transaction ends. Outside a transaction it behaves like Get.
	LockByID(ctx context.Context, id string) (*models.Supplier, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Supplier, error)
	Insert(ctx context.Context, s *models.Supplier) error
	Update(ctx context.Context, s *models.Supplier) error
	Delete(ctx context.Context, id string) error
}
