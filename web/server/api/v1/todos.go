package api

import (
	"errors"
	"net/http"

	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/db/models"
	dbtypes "go.hackfix.me/switchyard/db/types"
	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/types"
)

func todoNotFound() *handler.Response {
	return handler.JSON(http.StatusNotFound, types.MessageResponse{Message: "Todo not found"})
}

// TodosGet returns all todos, newest first.
func (h *Handler) TodosGet(c *handler.Context) (*handler.Response, error) {
	todos, err := models.Todos(c.Context(), h.appCtx.DB, nil)
	if err != nil {
		return nil, err
	}

	return handler.JSON(http.StatusOK, todos), nil
}

// TodoGet returns a single todo.
func (h *Handler) TodoGet(c *handler.Context) (*handler.Response, error) {
	todo := &models.Todo{ID: c.Param("id")}
	if err := todo.Load(c.Context(), h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return todoNotFound(), nil
		}
		return nil, aerrors.With(err, "todo_id", todo.ID)
	}

	return handler.JSON(http.StatusOK, todo), nil
}

// TodoPost creates a new todo.
func (h *Handler) TodoPost(c *handler.Context) (*handler.Response, error) {
	req, ok := handler.BodyAs[types.TodoCreateRequest](c)
	if !ok {
		return nil, errMissingBody
	}

	todo := &models.Todo{TaskName: req.TaskName}
	if err := todo.Save(c.Context(), h.appCtx.DB, false); err != nil {
		return nil, err
	}
	c.Logger().Debug("created todo", "id", todo.ID)

	return handler.JSON(http.StatusCreated, todo), nil
}

// TodoPut updates the fields of a todo set in the request.
func (h *Handler) TodoPut(c *handler.Context) (*handler.Response, error) {
	req, ok := handler.BodyAs[types.TodoUpdateRequest](c)
	if !ok {
		return nil, errMissingBody
	}

	ctx := c.Context()
	todo := &models.Todo{ID: c.Param("id")}
	if err := todo.Load(ctx, h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return todoNotFound(), nil
		}
		return nil, aerrors.With(err, "todo_id", todo.ID)
	}

	if req.TaskName != nil {
		todo.TaskName = *req.TaskName
	}
	if req.IsDone != nil {
		todo.IsDone = *req.IsDone
	}
	if err := todo.Save(ctx, h.appCtx.DB, true); err != nil {
		if isNoResult(err) {
			return todoNotFound(), nil
		}
		return nil, aerrors.With(err, "todo_id", todo.ID)
	}

	return handler.JSON(http.StatusOK, todo), nil
}

// TodoDelete removes a todo.
func (h *Handler) TodoDelete(c *handler.Context) (*handler.Response, error) {
	todo := &models.Todo{ID: c.Param("id")}
	if err := todo.Delete(c.Context(), h.appCtx.DB); err != nil {
		if isNoResult(err) {
			return todoNotFound(), nil
		}
		return nil, aerrors.With(err, "todo_id", todo.ID)
	}

	return handler.JSON(http.StatusOK, types.MessageResponse{Message: "Todo deleted successfully"}), nil
}

func isNoResult(err error) bool {
	var errNoRes dbtypes.NoResultError
	return errors.As(err, &errNoRes)
}
