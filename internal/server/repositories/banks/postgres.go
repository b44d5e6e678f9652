package banks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a banks repository over db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLatestByUser(ctx context.Context, userID string) (*models.Bank, error) {
	query :=
		`SELECT id, user_id, name, code, account_type, account_number, created_at, updated_at
		 FROM banks WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	b := &models.Bank{}
	var accountType int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.ID, &b.UserID, &b.Name, &b.Code,
		&accountType, &b.AccountNumber, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	b.AccountType = models.AccountTypeFromCode(accountType)
	return b, nil
}
