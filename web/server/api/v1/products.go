package api

import (
	"net/http"

	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/db/models"
	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/types"
)

var errProductNotFound = types.NewNotFoundError("Product not found")

// ProductsGet returns all products.
func (h *Handler) ProductsGet(c *handler.Context) (*handler.Response, error) {
	products, err := models.Products(c.Context(), h.appCtx.DB, nil)
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		return handler.JSON(http.StatusOK, types.NewEnvelope("No products found", products)), nil
	}

	return handler.JSON(http.StatusOK, types.NewEnvelope("", products).WithCount(len(products))), nil
}

// ProductGet returns a single product.
func (h *Handler) ProductGet(c *handler.Context) (*handler.Response, error) {
	product := &models.Product{ID: c.Param("id")}
	if err := product.Load(c.Context(), h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return nil, errProductNotFound
		}
		return nil, aerrors.With(err, "product_id", product.ID)
	}

	return handler.JSON(http.StatusOK, types.NewEnvelope("", product)), nil
}

// ProductPost creates a new product.
func (h *Handler) ProductPost(c *handler.Context) (*handler.Response, error) {
	req, ok := handler.BodyAs[types.ProductRequest](c)
	if !ok {
		return nil, errMissingBody
	}

	product := &models.Product{}
	applyProduct(product, req)
	if err := product.Save(c.Context(), h.appCtx.DB, false); err != nil {
		return nil, err
	}
	c.Logger().Debug("created product", "id", product.ID)

	return handler.JSON(http.StatusCreated,
		types.NewEnvelope("Product created successfully", product)), nil
}

// ProductPut replaces the fields of an existing product.
func (h *Handler) ProductPut(c *handler.Context) (*handler.Response, error) {
	req, ok := handler.BodyAs[types.ProductRequest](c)
	if !ok {
		return nil, errMissingBody
	}

	ctx := c.Context()
	product := &models.Product{ID: c.Param("id")}
	if err := product.Load(ctx, h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return nil, errProductNotFound
		}
		return nil, aerrors.With(err, "product_id", product.ID)
	}

	applyProduct(product, req)
	if err := product.Save(ctx, h.appCtx.DB, true); err != nil {
		if isNoResult(err) {
			return nil, errProductNotFound
		}
		return nil, aerrors.With(err, "product_id", product.ID)
	}

	return handler.JSON(http.StatusOK,
		types.NewEnvelope("Product updated successfully", product)), nil
}

// ProductDelete removes a product.
func (h *Handler) ProductDelete(c *handler.Context) (*handler.Response, error) {
	product := &models.Product{ID: c.Param("id")}
	if err := product.Delete(c.Context(), h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return nil, errProductNotFound
		}
		return nil, aerrors.With(err, "product_id", product.ID)
	}

	return handler.JSON(http.StatusOK,
		types.NewEnvelope("Product deleted successfully", struct{}{})), nil
}

// applyProduct copies validated request fields to p.
func applyProduct(p *models.Product, req *types.ProductRequest) {
	p.Name = *req.Name
	p.Price = *req.Price
	p.Description = req.Description
	p.Category = req.Category
}
