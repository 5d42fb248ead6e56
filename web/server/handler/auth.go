package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.hackfix.me/switchyard/crypto"
	"go.hackfix.me/switchyard/db/models"
	dbtypes "go.hackfix.me/switchyard/db/types"
	"go.hackfix.me/switchyard/web/server/types"
)

// Authenticator validates a request and returns the identity of the client.
// A *types.Error signals a rejected request; any other error is a failure of
// the authenticator itself.
type Authenticator func(context.Context, *http.Request) (*Identity, error)

type authenticate struct {
	auth Authenticator
}

// Authenticate returns a step that runs the authenticator and stores the
// resulting identity in the Context.
func Authenticate(auth Authenticator) Step {
	if auth == nil {
		panic("handler: nil Authenticator")
	}
	return authenticate{auth: auth}
}

func (a authenticate) Serve(c *Context) (*Response, error) {
	id, err := a.auth(c.Context(), c.Request())
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, types.NewUnauthorizedError("Authentication required")
	}

	c.SetIdentity(id)

	return c.Next()
}

func (authenticate) Provides() []Capability {
	return []Capability{CapIdentity}
}

func (authenticate) Name() string {
	return "Authenticate"
}

// TokenAuth creates an authenticator that validates requests using the bearer
// token issued to a user when it was created. Only the token hash is stored,
// so the lookup is done by hashing the supplied token.
func TokenAuth(d dbtypes.Querier) Authenticator {
	return func(ctx context.Context, r *http.Request) (*Identity, error) {
		token, err := parseAuthHeader(r.Header.Get("Authorization"))
		if err != nil {
			return nil, types.NewUnauthorizedError(err.Error())
		}

		hash, err := crypto.HashToken(token)
		if err != nil {
			return nil, types.NewUnauthorizedError("invalid token")
		}

		user := &models.User{TokenHash: hash}
		if err = user.Load(ctx, d); err != nil {
			var errNoRes dbtypes.NoResultError
			if errors.As(err, &errNoRes) {
				return nil, types.NewUnauthorizedError("invalid token")
			}
			return nil, fmt.Errorf("failed loading user: %w", err)
		}

		return &Identity{
			ID:   strconv.FormatUint(user.ID, 10),
			Name: user.Name,
			Role: user.Role,
		}, nil
	}
}

// StaticAuth creates an authenticator that accepts every request as the given
// identity. It's meant for local development and tests.
func StaticAuth(id Identity) Authenticator {
	return func(context.Context, *http.Request) (*Identity, error) {
		ident := id
		return &ident, nil
	}
}

// parseAuthHeader parses a Bearer token from an Authorization header.
func parseAuthHeader(header string) (string, error) {
	if header == "" {
		return "", errors.New("empty Authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("invalid Authorization header scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("empty bearer token")
	}

	return token, nil
}
