package models

import (
	"context"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/switchyard/db/types"
)

// Product is an item of the product catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Save stores the product in the database. A new product is assigned a random
// ID.
func (p *Product) Save(ctx context.Context, d types.Querier, update bool) error {
	timeNow := d.TimeNow().UTC()
	idStr := fmt.Sprintf("ID '%s'", p.ID)
	if update {
		if p.ID == "" {
			return types.InvalidInputError{Msg: "product ID must be set"}
		}

		res, err := d.ExecContext(ctx,
			`UPDATE products
			SET updated_at = ?, name = ?, price = ?, description = ?, category = ?
			WHERE id = ?`,
			timeNow, p.Name, p.Price, p.Description, p.Category, p.ID)
		if err != nil {
			return types.Err("product", idStr, err)
		}
		if err = expectOne(res, "product", idStr); err != nil {
			return err
		}
		p.UpdatedAt = timeNow

		return nil
	}

	if p.Name == "" {
		return types.InvalidInputError{Msg: "product name must be set"}
	}
	if p.ID == "" {
		p.ID = cuid2.Generate()
		idStr = fmt.Sprintf("ID '%s'", p.ID)
	}
	_, err := d.ExecContext(ctx,
		`INSERT INTO products (id, created_at, updated_at, name, price, description, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, timeNow, timeNow, p.Name, p.Price, p.Description, p.Category)
	if err != nil {
		return types.Err("product", idStr, err)
	}
	p.CreatedAt = timeNow
	p.UpdatedAt = timeNow

	return nil
}

// Load the product from the database by its ID.
func (p *Product) Load(ctx context.Context, d types.Querier) error {
	if p.ID == "" {
		return types.InvalidInputError{Msg: "product ID must be set"}
	}

	products, err := Products(ctx, d, types.NewFilter("id = ?", []any{p.ID}))
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return types.NoResultError{ModelName: "product", ID: fmt.Sprintf("ID '%s'", p.ID)}
	}
	*p = *products[0]

	return nil
}

// Delete removes the product from the database. It returns an error if the
// product doesn't exist.
func (p *Product) Delete(ctx context.Context, d types.Querier) error {
	if p.ID == "" {
		return types.InvalidInputError{Msg: "product ID must be set"}
	}

	res, err := d.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, p.ID)
	if err != nil {
		return types.Err("product", fmt.Sprintf("ID '%s'", p.ID), err)
	}

	return expectOne(res, "product", fmt.Sprintf("ID '%s'", p.ID))
}

// Products returns products from the database, newest first. An optional
// filter can be passed to limit the results.
func Products(ctx context.Context, d types.Querier, filter *types.Filter) (products []*Product, rerr error) {
	where, args, limit := filterClauses(filter)
	query := fmt.Sprintf(`SELECT id, created_at, updated_at, name, price, description, category
		FROM products WHERE %s
		ORDER BY created_at DESC, rowid DESC%s`, where, limit)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "products", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing products rows: %w", err)
		}
	}()

	products = make([]*Product, 0)
	for rows.Next() {
		var p Product
		err = rows.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Name, &p.Price, &p.Description, &p.Category)
		if err != nil {
			return nil, types.ScanError{ModelName: "product", Err: err}
		}
		products = append(products, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over products rows: %w", err)
	}

	return products, nil
}
