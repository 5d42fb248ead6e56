package types

import "strings"

// TodoCreateRequest is the request data to create a new todo.
type TodoCreateRequest struct {
	TaskName string `json:"taskName"`
}

// Validate checks that the request is valid and ready for processing.
func (r *TodoCreateRequest) Validate() error {
	r.TaskName = strings.TrimSpace(r.TaskName)
	if r.TaskName == "" {
		return NewBadRequestError("Task name is required")
	}

	return nil
}

// TodoUpdateRequest is the request data to update an existing todo. Only
// fields set in the request are updated.
type TodoUpdateRequest struct {
	TaskName *string `json:"taskName"`
	IsDone   *bool   `json:"isDone"`
}

// Validate checks that the request is valid and ready for processing.
func (r *TodoUpdateRequest) Validate() error {
	if r.TaskName != nil {
		name := strings.TrimSpace(*r.TaskName)
		if name == "" {
			// An empty name is ignored, same as not sending it.
			r.TaskName = nil
		} else {
			r.TaskName = &name
		}
	}

	return nil
}
