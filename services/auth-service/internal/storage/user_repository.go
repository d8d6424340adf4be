package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vibeseat/vibeseat/libs/db"
)

type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, phone, password_hash, role)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`, user.ID, user.Email, user.Name, user.Phone, user.PasswordHash, user.Role)
	return err
}

func (r *UserRepository) CreateTx(ctx context.Context, tx pgx.Tx, user User) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO users (id, email, name, phone, password_hash, role)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`, user.ID, user.Email, user.Name, user.Phone, user.PasswordHash, user.Role)
	return err
}

const userColumns = `id, email, name, COALESCE(phone, ''), password_hash, role, created_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Name, &user.Phone, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) SetRole(ctx context.Context, id string, role string) error {
	var updated string
	return r.pool.QueryRow(ctx, `
		UPDATE users
		SET role = $2
		WHERE id = $1
		RETURNING id
	`, id, role).Scan(&updated)
}

func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
