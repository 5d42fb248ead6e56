package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.hackfix.me/switchyard/web/server/types"
)

const maxBodySize = 1024 * 1024 // 1MiB

// Validator is implemented by request types that check their own contents
// after decoding.
type Validator interface {
	Validate() error
}

type parseJSON[T any] struct{}

// ParseJSON returns a step that decodes the JSON request body into a new T and
// stores it in the Context. An empty body decodes to the zero value of T, and
// a body with anything but whitespace after the JSON value is rejected. If
// *T implements Validator, the decoded value is validated before continuing.
func ParseJSON[T any]() Step {
	return parseJSON[T]{}
}

func (parseJSON[T]) Serve(c *Context) (*Response, error) {
	v := new(T)

	if body := c.Request().Body; body != nil {
		dec := json.NewDecoder(io.LimitReader(body, maxBodySize))
		err := dec.Decode(v)
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			return nil, types.NewBadRequestError(
				fmt.Sprintf("failed decoding request body as JSON: %s", err))
		default:
			if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
				return nil, types.NewBadRequestError(
					"failed decoding request body as JSON: unexpected data after the JSON value")
			}
		}
	}

	if vd, ok := any(v).(Validator); ok {
		if err := vd.Validate(); err != nil {
			var terr *types.Error
			if errors.As(err, &terr) {
				return nil, terr
			}
			return nil, types.NewBadRequestError(err.Error())
		}
	}

	c.SetBody(v)

	return c.Next()
}

func (parseJSON[T]) Provides() []Capability {
	return []Capability{CapBody}
}

func (parseJSON[T]) Name() string {
	return fmt.Sprintf("ParseJSON[%T]", *new(T))
}
