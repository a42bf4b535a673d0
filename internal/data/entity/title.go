package entity

import "github.com/google/uuid"

type Title struct {
	Base
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description *string    `db:"description"`
	CategoryID  *uuid.UUID `db:"category_id"`

	// populated on read
	Category *Category `db:"-"`
	Genres   []*Genre  `db:"-"`
	Rating   *float64  `db:"-"` // mean review score, nil without reviews
}
