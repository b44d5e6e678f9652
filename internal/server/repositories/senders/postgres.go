package senders

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

// NewPostgresRepository constructs a senders repository over db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetLatestByUser(ctx context.Context, userID string) (*models.Sender, error) {
	query :=
		`SELECT id, user_id, name, email, tel, postal_code, address, created_at, updated_at
		 FROM senders WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	s := &models.Sender{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &s.Name, &s.Email,
		&s.Tel, &s.PostalCode, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
