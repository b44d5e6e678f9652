package users

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
	db     dbx.DBTX
	sealer Sealer
}

// NewPostgresRepository constructs a users repository over db. Refresh tokens
// pass through sealer on the way in and out.
func NewPostgresRepository(db dbx.DBTX, sealer Sealer) *PostgresRepository {
	return &PostgresRepository{db: db, sealer: sealer}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var sealed string
	if err := row.Scan(&user.ID, &sealed, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	token, err := r.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open refresh token of %s: %w", user.ID, err)
	}
	user.MisocaRefreshToken = token
	return user, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, misoca_refresh_token, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT id, misoca_refresh_token, created_at, updated_at FROM users
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	sealed, err := r.sealer.Seal(user.MisocaRefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	query :=
		`INSERT INTO users (id, misoca_refresh_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query, user.ID, sealed, user.CreatedAt, user.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	sealed, err := r.sealer.Seal(user.MisocaRefreshToken)
	if err != nil {
		return fmt.Errorf("seal refresh token: %w", err)
	}

	query :=
		`UPDATE users SET misoca_refresh_token = $2, updated_at = $3
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, user.ID, sealed, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
