package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mishragini/metaverse/internal/models"
)

// InsertAvatar creates an avatar catalog entry.
func InsertAvatar(ctx context.Context, a *models.Avatar) error {
	if a.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate avatar id: %w", err)
		}
		a.ID = id
	}

	q := `INSERT INTO avatars (id, name, image_url) VALUES ($1, $2, $3)`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, a.ID, a.Name, a.ImageURL)
		return err
	})
}

// ListAvatars returns every selectable avatar.
func ListAvatars(ctx context.Context) ([]models.Avatar, error) {
	rows, err := DB.Query(ctx, `SELECT id, name, image_url FROM avatars`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var avatars []models.Avatar
	for rows.Next() {
		var a models.Avatar
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL); err != nil {
			return nil, err
		}
		avatars = append(avatars, a)
	}
	return avatars, rows.Err()
}
