package storage

import (
	"context"

	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

type ChairRepository struct {
	pool *db.Pool
}

func NewChairRepository(pool *db.Pool) *ChairRepository {
	return &ChairRepository{pool: pool}
}

func (r *ChairRepository) Create(ctx context.Context, name, location string, status model.ChairStatus) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chairs (name, location, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, location, status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ChairRepository) Get(ctx context.Context, id string) (model.Chair, error) {
	var c model.Chair
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(location, ''), status, created_at
		FROM chairs
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Location, &c.Status, &c.CreatedAt)
	if err != nil {
		return model.Chair{}, err
	}
	return c, nil
}

func (r *ChairRepository) Update(ctx context.Context, id, name, location string, status model.ChairStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chairs
		SET name = $2,
			location = $3,
			status = $4,
			updated_at = now()
		WHERE id = $1
	`, id, name, location, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *ChairRepository) SetStatus(ctx context.Context, id string, status model.ChairStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chairs
		SET status = $2,
			updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *ChairRepository) List(ctx context.Context, limit int) ([]model.Chair, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(location, ''), status, created_at
		FROM chairs
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chairs []model.Chair
	for rows.Next() {
		var c model.Chair
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		chairs = append(chairs, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return chairs, nil
}

// ListActivePage returns one page of active chairs in stable creation
// order plus the total active chair count for pagination metadata.
func (r *ChairRepository) ListActivePage(ctx context.Context, limit, offset int) ([]model.Chair, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM chairs WHERE status = 'active'`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(location, ''), status, created_at
		FROM chairs
		WHERE status = 'active'
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var chairs []model.Chair
	for rows.Next() {
		var c model.Chair
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Status, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		chairs = append(chairs, c)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return chairs, total, nil
}
