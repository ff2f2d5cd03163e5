package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vpopov/accountbook/internal/apperrors"
	"github.com/vpopov/accountbook/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO account_users (name)
VALUES ($1)
RETURNING id, created_at, updated_at, name
`

func (r *UserRepo) CreateUser(ctx context.Context, name string) (models.AccountUser, error) {
	rows, _ := r.DB.Query(ctx, createUser, name)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	if err != nil {
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, updated_at, name FROM account_users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.AccountUser, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.AccountUser, error) {
	var u models.AccountUser
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name)
	return u, err
}
