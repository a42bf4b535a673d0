package request

type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=50"`
	Year        *int     `json:"year" validate:"required,min=0,max=32767"`
	Description *string  `json:"description,omitempty"`
	Genre       []string `json:"genre" validate:"omitempty,dive,slug"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,slug"`
}

// UpdateTitleRequest: a nil Genre keeps the current links, an empty one clears them.
type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Year        *int      `json:"year,omitempty" validate:"omitempty,min=0,max=32767"`
	Description *string   `json:"description,omitempty"`
	Genre       *[]string `json:"genre,omitempty" validate:"omitempty,dive,slug"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,slug"`
}

// TitleQuery holds the list filters; empty strings and a nil Year mean "any".
type TitleQuery struct {
	Name     string
	Category string
	Genre    string
	Year     *int
}
