package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	actx "go.hackfix.me/switchyard/app/context"
	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/web/server"
	"go.hackfix.me/switchyard/web/server/api/v1"
	"go.hackfix.me/switchyard/web/server/handler"
)

// Serve starts the web server.
type Serve struct {
	//nolint:lll // Long struct tags are unavoidable.
	Address         string        `arg:"" optional:"" help:"[host]:port to listen on. If not set, the PORT environment variable or the configured address is used."`
	Strict          bool          `help:"Panic on malformed route chains instead of degrading gracefully. The panic results in a 500 response."`
	StaticRole      string        `help:"Authenticate every request as a user with this role, instead of validating tokens. Meant for development."`
	ShutdownTimeout time.Duration `help:"Maximum time to wait for active requests to finish when stopping the server."`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	opts, err := serverOptions(appCtx, c.StaticRole)
	if err != nil {
		return err
	}
	opts.Strict = c.Strict

	addr := c.Address
	if addr == "" && appCtx.Env != nil {
		if port := appCtx.Env.Get("PORT"); port != "" {
			addr = ":" + port
		}
	}
	if addr == "" {
		addr = appCtx.Config.Server.Address.V
	}

	srv := server.New(appCtx, addr, opts)

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	// See https://dev.to/mokiat/proper-http-shutdown-in-go-3fji
	srvDone := make(chan error, 1)
	go func() {
		srvErr := srv.ListenAndServe()
		slog.Debug("web server shutdown")
		srvDone <- srvErr
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	case srvErr := <-srvDone:
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			return aerrors.NewRuntimeError("web server error", srvErr, "")
		}
		return nil
	}

	ctx := context.WithoutCancel(appCtx.Ctx)
	if c.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ShutdownTimeout)
		defer cancel()
	}
	if err = srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return nil
}

// serverOptions returns the server options derived from the configuration.
// If staticRole is set, requests are authenticated as a fixed development
// user with that role.
func serverOptions(appCtx *actx.Context, staticRole string) (server.Options, error) {
	opts := server.Options{API: api.Options{Auth: handler.TokenAuth(appCtx.DB)}}
	if staticRole != "" {
		appCtx.Logger.Warn("static authentication is enabled; all requests are trusted",
			"role", staticRole)
		opts.API.Auth = handler.StaticAuth(handler.Identity{
			ID: "1", Name: "developer", Role: staticRole,
		})
	}

	if appCtx.Config != nil && len(appCtx.Config.Server.AdminNetworks) > 0 {
		nets, err := handler.ParseNetworks(appCtx.Config.Server.AdminNetworks...)
		if err != nil {
			return opts, aerrors.NewRuntimeError("invalid admin networks", err,
				"Check the server.admin_networks value in the configuration file.")
		}
		opts.API.AdminNetworks = nets
	}

	return opts, nil
}
