package types

import "strings"

// ProductRequest is the request data to create or update a product.
type ProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

// Validate checks that the request is valid and ready for processing. All
// validation failures are reported in a single error.
func (r *ProductRequest) Validate() error {
	var msgs []string

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Name == nil || *r.Name == "" {
		msgs = append(msgs, "Product name is required")
	}

	switch {
	case r.Price == nil:
		msgs = append(msgs, "Product price is required")
	case *r.Price < 0:
		msgs = append(msgs, "Product price must not be negative")
	}

	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)

	if len(msgs) > 0 {
		return NewBadRequestError(strings.Join(msgs, ", "))
	}

	return nil
}
