package api

import (
	"fmt"
	"net/http"

	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/types"
)

// StudentGet is the landing page of the student portal.
func (h *Handler) StudentGet(c *handler.Context) (*handler.Response, error) {
	return welcome(c, "Welcome to student portal")
}

// AdminGet is the landing page of the admin dashboard.
func (h *Handler) AdminGet(c *handler.Context) (*handler.Response, error) {
	return welcome(c, "Welcome to admin dashboard")
}

func welcome(c *handler.Context, msg string) (*handler.Response, error) {
	id, ok := c.Identity()
	if !ok {
		return nil, fmt.Errorf("%w: identity", handler.ErrMissingAttribute)
	}

	return handler.JSON(http.StatusOK, &types.Envelope{
		Success: true,
		Message: msg,
		User:    id,
	}), nil
}
