package medicine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("medicine not found")

func Create(ctx context.Context, db sqlx.ExtContext, m Medicine) error {
	const q = `
	INSERT INTO medicines
		(medicine_id, category_id, name, description, image_url, price, discount_percent, prescription, stock, created_at, updated_at)
	VALUES
		(:medicine_id, :category_id, :name, :description, :image_url, :price, :discount_percent, :prescription, :stock, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, m); err != nil {
		return fmt.Errorf("inserting medicine: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, m Medicine) error {
	const q = `
	UPDATE medicines SET
		category_id = :category_id,
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		discount_percent = :discount_percent,
		prescription = :prescription,
		stock = :stock,
		updated_at = :updated_at,
		version = version + 1
	WHERE medicine_id = :medicine_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, m)
	if err != nil {
		return fmt.Errorf("updating medicine[%s]: %w", m.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Medicine, error) {
	const q = `SELECT * FROM medicines WHERE medicine_id = $1`

	var m Medicine
	if err := sqlx.GetContext(ctx, db, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Medicine{}, ErrNotFound
		}
		return Medicine{}, fmt.Errorf("fetching medicine[%s]: %w", id, err)
	}

	return m, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Medicine, error) {
	const q = `SELECT * FROM medicines ORDER BY name`

	ms := []Medicine{}
	if err := sqlx.SelectContext(ctx, db, &ms, q); err != nil {
		return nil, fmt.Errorf("fetching medicines: %w", err)
	}

	return ms, nil
}

func FetchByCategory(ctx context.Context, db sqlx.ExtContext, categoryID string) ([]Medicine, error) {
	const q = `SELECT * FROM medicines WHERE category_id = $1 ORDER BY name`

	ms := []Medicine{}
	if err := sqlx.SelectContext(ctx, db, &ms, q, categoryID); err != nil {
		return nil, fmt.Errorf("fetching medicines for category[%s]: %w", categoryID, err)
	}

	return ms, nil
}
