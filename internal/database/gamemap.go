package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mishragini/metaverse/internal/models"
)

// InsertMap creates a map template and its default element placements in one
// transaction.
func InsertMap(ctx context.Context, m *models.GameMap) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate map id: %w", err)
		}
		m.ID = id
	}

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO maps (id, name, width, height, thumbnail) VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.Name, m.Width, m.Height, m.Thumbnail)
		if err != nil {
			return err
		}

		for i := range m.DefaultElements {
			el := &m.DefaultElements[i]
			if el.ID == uuid.Nil {
				id, err := uuid.NewRandom()
				if err != nil {
					return fmt.Errorf("failed to generate map element id: %w", err)
				}
				el.ID = id
			}
			el.MapID = m.ID
			_, err := tx.Exec(ctx,
				`INSERT INTO map_elements (id, map_id, element_id, x, y) VALUES ($1, $2, $3, $4, $5)`,
				el.ID, el.MapID, el.ElementID, el.X, el.Y)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
