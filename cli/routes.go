package cli

import (
	"strings"

	actx "go.hackfix.me/switchyard/app/context"
	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/web/server"
)

// The Routes command lists the API routes, in registration order, along with
// the steps that process each request.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	opts, err := serverOptions(appCtx, "")
	if err != nil {
		return err
	}
	r := server.NewRouter(appCtx, appCtx.Logger, opts, nil)

	routes := r.Routes()
	data := make([][]string, len(routes))
	for i, rt := range routes {
		data[i] = []string{rt.Method, rt.Pattern, strings.Join(rt.Steps, " > ")}
	}

	header := []string{"Method", "Pattern", "Steps"}
	if err = renderTable(header, data, appCtx.Stdout); err != nil {
		return aerrors.NewRuntimeError("failed rendering table", err, "")
	}

	return nil
}
