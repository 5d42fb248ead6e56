package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/switchyard/crypto"
)

func TestAppInit(t *testing.T) {
	t.Parallel()

	tctx, cancel, h := newTestContext(t, 5*time.Second)
	defer cancel()

	app, err := newTestApp(tctx)
	h(assert.NoError(t, err))

	err = app.Run("init")
	h(assert.NoError(t, err))
	h(assert.Contains(t, app.stdout.String(), "Switchyard is initialized with version"))
	h(assert.Contains(t, app.stderr.String(), "created configuration file"))

	cfgJSON, err := vfs.ReadFile(app.ctx.FS, "/config.json")
	h(assert.NoError(t, err))
	var cfg map[string]any
	h(assert.NoError(t, json.Unmarshal(cfgJSON, &cfg)))
	h(assert.Equal(t, map[string]any{
		"address":          ":3000",
		"strict_chains":    false,
		"shutdown_timeout": "10s",
	}, cfg["server"]))

	// An existing configuration file is left alone.
	err = vfs.WriteFile(app.ctx.FS, "/config.json", []byte(`{"server":{"address":":8080"}}`), 0o644)
	h(assert.NoError(t, err))
	app.ctx.Config = nil

	err = app.Run("init")
	h(assert.NoError(t, err))
	h(assert.NotContains(t, app.stderr.String(), "created configuration file"))
	cfgJSON, err = vfs.ReadFile(app.ctx.FS, "/config.json")
	h(assert.NoError(t, err))
	h(assert.JSONEq(t, `{"server":{"address":":8080"}}`, string(cfgJSON)))
}

func TestAppUser(t *testing.T) {
	t.Parallel()

	tctx, cancel, h := newTestContext(t, 5*time.Second)
	defer cancel()

	app, err := newTestApp(tctx)
	h(assert.NoError(t, err))

	err = app.Run("user", "add", "alice", "--role=admin")
	h(assert.NoError(t, err))
	token := strings.TrimSpace(app.stdout.String())
	h(assert.NotEmpty(t, token))
	_, err = crypto.HashToken(token)
	h(assert.NoError(t, err))

	err = app.Run("user", "add", "bob")
	h(assert.NoError(t, err))

	err = app.Run("user", "add", "alice")
	h(assert.ErrorContains(t, err, "failed adding user 'alice'"))
	h(assert.ErrorContains(t, err, "already exists"))

	err = app.Run("user", "ls")
	h(assert.NoError(t, err))
	lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
	h(assert.Len(t, lines, 3))
	h(assert.Regexp(t, `alice\s+admin\s+2025-01-01 00:00:00`, lines[1]))
	h(assert.Regexp(t, `bob\s+student`, lines[2]))

	err = app.Run("user", "token", "alice")
	h(assert.NoError(t, err))
	newToken := strings.TrimSpace(app.stdout.String())
	h(assert.NotEmpty(t, newToken))
	h(assert.NotEqual(t, token, newToken))

	err = app.Run("user", "rm", "alice")
	h(assert.NoError(t, err))

	err = app.Run("user", "rm", "alice")
	h(assert.ErrorContains(t, err, "user with name 'alice' doesn't exist"))

	err = app.Run("user", "token", "alice")
	h(assert.ErrorContains(t, err, "failed updating user 'alice'"))
}

func TestAppRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    string
		expStdout []string
		expErr    string
	}{
		{
			name:   "ok/default",
			config: `{}`,
			expStdout: []string{
				"/student",
				"RequireRole(student)",
				"RequireRole(admin)",
				"Require(write",
				"/api/products/:id",
				"/users/:id",
			},
		},
		{
			name:   "ok/admin_networks",
			config: `{"server":{"admin_networks":["10.0.0.0/8"]}}`,
			expStdout: []string{
				"AllowNetworks",
			},
		},
		{
			name:   "err/invalid_admin_networks",
			config: `{"server":{"admin_networks":["not.an.ip"]}}`,
			expErr: "invalid admin networks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tctx, cancel, h := newTestContext(t, 5*time.Second)
			defer cancel()

			app, err := newTestApp(tctx)
			h(assert.NoError(t, err))

			err = vfs.WriteFile(app.ctx.FS, "/config.json", []byte(tt.config), 0o644)
			h(assert.NoError(t, err))

			err = app.Run("routes")
			if tt.expErr != "" {
				h(assert.ErrorContains(t, err, tt.expErr))
				return
			}

			h(assert.NoError(t, err))
			stdout := app.stdout.String()
			for _, exp := range tt.expStdout {
				h(assert.Contains(t, stdout, exp))
			}
		})
	}
}

func TestAppServe(t *testing.T) {
	t.Parallel()

	timeout := 5 * time.Second
	tctx, cancel, h := newTestContext(t, timeout)
	defer cancel()

	app, err := newTestApp(tctx)
	h(assert.NoError(t, err))

	err = app.Run("init")
	h(assert.NoError(t, err))

	token, hash, err := crypto.NewToken()
	h(assert.NoError(t, err))
	h(assert.NoError(t, addTestUser(app.ctx, "root", "admin", hash)))

	addrCh := make(chan string)
	app.stderr.waitFor(`started listener.*address=(\S+)`, 1, addrCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run("serve", "--log-level=DEBUG", "127.0.0.1:0")
	}()

	var srvAddress string
	select {
	case srvAddress = <-addrCh:
	case err = <-errCh:
		t.Fatalf("server stopped early: %v", err)
	case <-tctx.Done():
		t.Fatalf("timed out after %s", timeout)
	}

	get := func(path, token string) (int, string) {
		req, rerr := http.NewRequestWithContext(tctx, http.MethodGet,
			fmt.Sprintf("http://%s%s", srvAddress, path), nil)
		require.NoError(t, rerr)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, rerr := http.DefaultClient.Do(req)
		require.NoError(t, rerr)
		defer resp.Body.Close()
		body, rerr := io.ReadAll(resp.Body)
		require.NoError(t, rerr)
		return resp.StatusCode, string(body)
	}

	code, body := get("/", "")
	h(assert.Equal(t, http.StatusOK, code))
	h(assert.Equal(t, "Welcome! This is the GET route.", body))

	code, _ = get("/admin", "")
	h(assert.Equal(t, http.StatusUnauthorized, code))

	code, body = get("/admin", token)
	h(assert.Equal(t, http.StatusOK, code))
	h(assert.Contains(t, body, `"message":"Welcome to admin dashboard"`))
	h(assert.Contains(t, body, `"name":"root"`))

	code, body = get("/metrics", "")
	h(assert.Equal(t, http.StatusOK, code))
	h(assert.Regexp(t, regexp.MustCompile(`switchyard_requests_total\{method="GET",route="/admin",status="401"\} 1`), body))

	cancel()
	select {
	case err = <-errCh:
		assert.NoError(t, err)
	case <-time.After(timeout):
		t.Fatalf("server didn't stop after %s", timeout)
	}
}

func TestAppServePortEnv(t *testing.T) {
	t.Parallel()

	timeout := 5 * time.Second
	tctx, cancel, h := newTestContext(t, timeout)
	defer cancel()

	app, err := newTestApp(tctx)
	h(assert.NoError(t, err))
	h(assert.NoError(t, app.env.Set("PORT", "not-a-port")))

	// An explicit address wins over PORT.
	addrCh := make(chan string)
	app.stderr.waitFor(`started listener.*address=(\S+)`, 1, addrCh)
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run("serve", "127.0.0.1:0")
	}()

	select {
	case addr := <-addrCh:
		h(assert.True(t, strings.HasPrefix(addr, "127.0.0.1:")))
	case err = <-errCh:
		t.Fatalf("server stopped early: %v", err)
	case <-tctx.Done():
		t.Fatalf("timed out after %s", timeout)
	}
	cancel()
	<-errCh

	tctx2, cancel2, h2 := newTestContext(t, timeout)
	defer cancel2()
	app2, err := newTestApp(tctx2)
	h2(assert.NoError(t, err))
	h2(assert.NoError(t, app2.env.Set("PORT", "not-a-port")))

	err = app2.Run("serve")
	h2(assert.ErrorContains(t, err, "web server error"))
}
