package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zpatrick/rbac"
)

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity *Identity
		expBody  string
		expErr   string
	}{
		{name: "ok", identity: &Identity{Role: "student"}},
		{
			name:     "err/wrong_role",
			identity: &Identity{Role: "admin"},
			expBody:  `{"success":false,"message":"Access denied. This route is only for students."}`,
		},
		{
			name:     "err/missing_identity",
			identity: nil,
			expErr:   "missing context attribute: identity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestContext(t)
			c.SetIdentity(tt.identity)
			c.continued = false

			resp, err := RequireRole("student").Serve(c)
			switch {
			case tt.expErr != "":
				assert.Nil(t, resp)
				assert.EqualError(t, err, tt.expErr)
				assert.ErrorIs(t, err, ErrMissingAttribute)
				assert.False(t, c.continued)
			case tt.expBody != "":
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.False(t, c.continued)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode())
				data, err := resp.Encode()
				require.NoError(t, err)
				assert.JSONEq(t, tt.expBody, string(data))
			default:
				require.NoError(t, err)
				assert.Nil(t, resp)
				assert.True(t, c.continued)
			}
		})
	}
}

func TestRequireAttribute(t *testing.T) {
	t.Parallel()

	c := newTestContext(t)
	_, err := RequireAttribute("tenant", "acme").Serve(c)
	assert.ErrorIs(t, err, ErrMissingAttribute)

	c.SetAttribute("tenant", "other")
	resp, err := RequireAttribute("tenant", "acme").Serve(c)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())
	assert.False(t, c.continued)

	c.SetAttribute("tenant", "acme")
	_, err = RequireAttribute("tenant", "acme").Serve(c)
	require.NoError(t, err)
	assert.True(t, c.continued)
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	policy := NewPolicy(
		rbac.Role{
			RoleID:      "admin",
			Permissions: []rbac.Permission{rbac.NewGlobPermission("*", "*")},
		},
		rbac.Role{
			RoleID:      "student",
			Permissions: []rbac.Permission{rbac.NewGlobPermission("read", "*")},
		},
	)

	tests := []struct {
		name    string
		role    string
		action  string
		expCode int
	}{
		{name: "ok/admin_write", role: "admin", action: "write"},
		{name: "ok/student_read", role: "student", action: "read"},
		{name: "err/student_write", role: "student", action: "write", expCode: http.StatusForbidden},
		{name: "err/unknown_role", role: "guest", action: "read", expCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestContext(t)
			c.SetIdentity(&Identity{Name: "u", Role: tt.role})

			resp, err := policy.Require(tt.action, "products").Serve(c)
			require.NoError(t, err)
			if tt.expCode == 0 {
				assert.Nil(t, resp)
				assert.True(t, c.continued)
				return
			}

			require.NotNil(t, resp)
			assert.Equal(t, tt.expCode, resp.StatusCode())
			data, err := resp.Encode()
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.action+" products")
		})
	}

	t.Run("err/missing_identity", func(t *testing.T) {
		t.Parallel()
		_, err := policy.Require("read", "products").Serve(newTestContext(t))
		assert.ErrorIs(t, err, ErrMissingAttribute)
	})
}

func TestAllowNetworks(t *testing.T) {
	t.Parallel()

	set, err := ParseNetworks("10.0.0.0/8", "192.168.1.5", "172.16.0.1-172.16.0.10", "::1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		expAllowed bool
	}{
		{name: "ok/cidr", remoteAddr: "10.1.2.3:4567", expAllowed: true},
		{name: "ok/plain", remoteAddr: "192.168.1.5:80", expAllowed: true},
		{name: "ok/range", remoteAddr: "172.16.0.7:80", expAllowed: true},
		{name: "ok/ipv6", remoteAddr: "[::1]:80", expAllowed: true},
		{name: "ok/mapped_ipv4", remoteAddr: "[::ffff:10.0.0.1]:80", expAllowed: true},
		{name: "err/outside", remoteAddr: "8.8.8.8:53", expAllowed: false},
		{name: "err/invalid", remoteAddr: "bogus", expAllowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.RemoteAddr = tt.remoteAddr
			c := NewContext(req, nil)

			resp, err := AllowNetworks(set).Serve(c)
			require.NoError(t, err)
			if tt.expAllowed {
				assert.Nil(t, resp)
				assert.True(t, c.continued)
				return
			}
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode())
		})
	}
}

func TestParseNetworksErr(t *testing.T) {
	t.Parallel()

	_, err := ParseNetworks("10.0.0.0/8", "not-an-ip")
	assert.ErrorContains(t, err, "failed parsing IP address 'not-an-ip'")
}
