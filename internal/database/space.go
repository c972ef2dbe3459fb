// internal/database/space.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mishragini/metaverse/internal/models"
)

// SpaceDimensions is the subset of a space the websocket join path needs.
type SpaceDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// InsertSpace creates a new space row.
func InsertSpace(ctx context.Context, space *models.Space) error {
	if space.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate space id: %w", err)
		}
		space.ID = id
	}

	q := `INSERT INTO spaces (id, name, width, height, thumbnail, creator_id)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			space.ID, space.Name, space.Width, space.Height, space.Thumbnail, space.CreatorID)
		return err
	})
}

// InsertSpaceFromMap creates a space adopting the map's dimensions and cloning
// its default element placements, all in one transaction.
func InsertSpaceFromMap(ctx context.Context, space *models.Space, mapID uuid.UUID) error {
	if space.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate space id: %w", err)
		}
		space.ID = id
	}

	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT width, height, COALESCE(thumbnail, '') FROM maps WHERE id=$1`, mapID,
		).Scan(&space.Width, &space.Height, &space.Thumbnail)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO spaces (id, name, width, height, thumbnail, creator_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			space.ID, space.Name, space.Width, space.Height, space.Thumbnail, space.CreatorID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO space_elements (id, space_id, element_id, x, y)
			 SELECT gen_random_uuid(), $1, element_id, x, y
			 FROM map_elements WHERE map_id=$2`,
			space.ID, mapID)
		return err
	})
}

// GetSpace fetches a space by id, without its elements.
func GetSpace(ctx context.Context, id uuid.UUID) (*models.Space, error) {
	var s models.Space
	q := `SELECT id, name, width, height, COALESCE(thumbnail, ''), creator_id
	      FROM spaces WHERE id=$1`
	err := DB.QueryRow(ctx, q, id).Scan(&s.ID, &s.Name, &s.Width, &s.Height, &s.Thumbnail, &s.CreatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSpaceDimensions fetches only a space's width and height. This is the
// query backing the websocket join path.
func GetSpaceDimensions(ctx context.Context, id uuid.UUID) (*SpaceDimensions, error) {
	var d SpaceDimensions
	err := DB.QueryRow(ctx, `SELECT width, height FROM spaces WHERE id=$1`, id).Scan(&d.Width, &d.Height)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListSpacesByCreator returns all spaces owned by a user.
func ListSpacesByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Space, error) {
	q := `SELECT id, name, width, height, COALESCE(thumbnail, ''), creator_id
	      FROM spaces WHERE creator_id=$1 ORDER BY name`
	rows, err := DB.Query(ctx, q, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []models.Space
	for rows.Next() {
		var s models.Space
		if err := rows.Scan(&s.ID, &s.Name, &s.Width, &s.Height, &s.Thumbnail, &s.CreatorID); err != nil {
			return nil, err
		}
		spaces = append(spaces, s)
	}
	return spaces, rows.Err()
}

// DeleteSpace removes a space; its elements go with it via ON DELETE CASCADE.
func DeleteSpace(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM spaces WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetSpaceElements returns the elements placed in a space, joined against the
// element catalog.
func GetSpaceElements(ctx context.Context, spaceID uuid.UUID) ([]models.SpaceElement, error) {
	q := `
	SELECT se.id, se.space_id, se.element_id, se.x, se.y,
	       e.id, e.width, e.height, e.image_url, e.static
	FROM space_elements se
	JOIN elements e ON se.element_id = e.id
	WHERE se.space_id=$1
	`
	rows, err := DB.Query(ctx, q, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var placed []models.SpaceElement
	for rows.Next() {
		var se models.SpaceElement
		var e models.Element
		if err := rows.Scan(&se.ID, &se.SpaceID, &se.ElementID, &se.X, &se.Y,
			&e.ID, &e.Width, &e.Height, &e.ImageURL, &e.Static); err != nil {
			return nil, err
		}
		se.Element = &e
		placed = append(placed, se)
	}
	return placed, rows.Err()
}

// AddSpaceElement places an element inside a space.
func AddSpaceElement(ctx context.Context, se *models.SpaceElement) error {
	if se.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate space element id: %w", err)
		}
		se.ID = id
	}

	q := `INSERT INTO space_elements (id, space_id, element_id, x, y)
	      VALUES ($1, $2, $3, $4, $5)`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, se.ID, se.SpaceID, se.ElementID, se.X, se.Y)
		return err
	})
}

// GetSpaceElement fetches one placed element together with the id of the
// creator of its space, for ownership checks.
func GetSpaceElement(ctx context.Context, id uuid.UUID) (*models.SpaceElement, uuid.UUID, error) {
	var se models.SpaceElement
	var creatorID uuid.UUID
	q := `
	SELECT se.id, se.space_id, se.element_id, se.x, se.y, s.creator_id
	FROM space_elements se
	JOIN spaces s ON se.space_id = s.id
	WHERE se.id=$1
	`
	err := DB.QueryRow(ctx, q, id).Scan(&se.ID, &se.SpaceID, &se.ElementID, &se.X, &se.Y, &creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, uuid.Nil, ErrNotFound
	}
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &se, creatorID, nil
}

// DeleteSpaceElement removes a placed element from a space.
func DeleteSpaceElement(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM space_elements WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
