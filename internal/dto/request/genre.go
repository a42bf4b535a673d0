package request

// CatalogEntryRequest creates a category or a genre; both have the same shape.
type CatalogEntryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}
