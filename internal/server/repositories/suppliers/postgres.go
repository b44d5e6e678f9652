package suppliers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akihokurino/works-server/internal/common"
	"github.com/akihokurino/works-server/internal/dbx"
	"github.com/akihokurino/works-server/internal/server/models"
)

const columns = `id, user_id, contact_id, contact_group_id, name, billing_amount, billing_type,
		 end_ym, subject, subject_template, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a suppliers repository over db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSupplier(row rowScanner) (*models.Supplier, error) {
	s := &models.Supplier{}
	var billingType string
	err := row.Scan(&s.ID, &s.UserID, &s.ContactID, &s.ContactGroupID, &s.Name, &s.BillingAmount,
		&billingType, &s.EndYM, &s.Subject, &s.SubjectTemplate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.BillingType = models.BillingType(billingType)
	return s, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.Supplier, error) {
	s, err := scanSupplier(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Supplier, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM suppliers WHERE id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Supplier, error) {
	return r.getOne(ctx, `SELECT `+columns+` FROM suppliers WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Supplier, error) {
	query := `SELECT ` + columns + ` FROM suppliers WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, s *models.Supplier) error {
	query :=
		`INSERT INTO suppliers (` + columns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.ContactID, s.ContactGroupID, s.Name, s.BillingAmount, string(s.BillingType),
		s.EndYM, s.Subject, s.SubjectTemplate, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Supplier) error {
	query :=
		`UPDATE suppliers SET contact_id = $2, contact_group_id = $3, name = $4, billing_amount = $5,
		 billing_type = $6, end_ym = $7, subject = $8, subject_template = $9, updated_at = $10
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		s.ID, s.ContactID, s.ContactGroupID, s.Name, s.BillingAmount,
		string(s.BillingType), s.EndYM, s.Subject, s.SubjectTemplate, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
