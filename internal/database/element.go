package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mishragini/metaverse/internal/models"
)

// InsertElement creates a catalog element (admin only at the handler layer).
func InsertElement(ctx context.Context, e *models.Element) error {
	if e.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate element id: %w", err)
		}
		e.ID = id
	}

	q := `INSERT INTO elements (id, width, height, image_url, static)
	      VALUES ($1, $2, $3, $4, $5)`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, e.ID, e.Width, e.Height, e.ImageURL, e.Static)
		return err
	})
}

// UpdateElementImage changes the image of an existing catalog element.
func UpdateElementImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE elements SET image_url=$1 WHERE id=$2`, imageURL, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListElements returns the full element catalog.
func ListElements(ctx context.Context) ([]models.Element, error) {
	rows, err := DB.Query(ctx, `SELECT id, width, height, image_url, static FROM elements`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []models.Element
	for rows.Next() {
		var e models.Element
		if err := rows.Scan(&e.ID, &e.Width, &e.Height, &e.ImageURL, &e.Static); err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, rows.Err()
}
