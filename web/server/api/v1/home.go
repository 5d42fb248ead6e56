package api

import (
	"fmt"
	"html"
	"net/http"

	"go.hackfix.me/switchyard/web/server/handler"
)

// HomeGet greets the client.
func (h *Handler) HomeGet(*handler.Context) (*handler.Response, error) {
	return handler.Text(http.StatusOK, "Welcome! This is the GET route."), nil
}

type sampleUser struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// UserPost returns a sample user. Nothing is stored.
func (h *Handler) UserPost(*handler.Context) (*handler.Response, error) {
	return handler.JSON(http.StatusOK, sampleUser{
		Name:  "Sitesh Kumar",
		Age:   25,
		Email: "thesiteshkumar@gmail.com",
	}), nil
}

// UserPut acknowledges an update of the user with the ID in the path.
func (h *Handler) UserPut(c *handler.Context) (*handler.Response, error) {
	return handler.HTML(http.StatusOK,
		fmt.Sprintf("<h1>Update user with ID %s</h1>", html.EscapeString(c.Param("id")))), nil
}

// UserDelete acknowledges a deletion of the user with the ID in the path.
func (h *Handler) UserDelete(c *handler.Context) (*handler.Response, error) {
	return handler.HTML(http.StatusOK,
		fmt.Sprintf("<h1>Delete user with ID %s</h1>", html.EscapeString(c.Param("id")))), nil
}
